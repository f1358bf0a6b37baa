package model

type Book struct {
	ID                string `db:"id" json:"id"`
	Title             string `db:"title" json:"title"`
	Author            string `db:"author" json:"author"`
	AvailableQuantity int64  `db:"available_quantity" json:"available_quantity"`
}
