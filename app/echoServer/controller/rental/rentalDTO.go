package rental

type RentBookReq struct {
	BookID string `json:"book_id" validate:"required,uuid4"`
}
