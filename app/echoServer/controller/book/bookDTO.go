package book

type CreateBookReq struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gte=0"`
}

type UpdateBookReq struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gte=0"`
}
