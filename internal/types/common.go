package types

// PageQuery is embedded by list queries.
type PageQuery struct {
	Page   int    `form:"page"`
	Size   int    `form:"size"`
	Search string `form:"search"`
}

// Normalize clamps page and size to sane values.
func (q *PageQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 {
		q.Size = 10
	}
	if q.Size > 100 {
		q.Size = 100
	}
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Size
}

// IDsRequest carries a batch of ids.
type IDsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}
