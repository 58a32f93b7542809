package event

const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
	TopicProductsPurged = "product.purged"
)

type ProductCreatedEvent struct {
	ProductID string   `json:"product_id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Price     string   `json:"price"`
	Stock     int      `json:"stock"`
	Images    []string `json:"images"`
}

type ProductUpdatedEvent struct {
	ProductID string   `json:"product_id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Price     string   `json:"price"`
	Stock     int      `json:"stock"`
	Images    []string `json:"images"`
	// ImagesReplaced is set when the update supplied a new image list.
	ImagesReplaced bool `json:"images_replaced"`
}

type ProductDeletedEvent struct {
	ProductID string `json:"product_id"`
	Slug      string `json:"slug"`
}

type ProductsPurgedEvent struct {
	Deleted int64 `json:"deleted"`
}
