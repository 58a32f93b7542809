package config

type Seed struct {
	// Wipe deletes every product before inserting the demo catalog.
	Wipe bool `env:"SEED_WIPE" envDefault:"true"`
}
