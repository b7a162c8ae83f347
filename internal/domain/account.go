package domain

// Account is a single unit of digital stock. The email doubles as the unique
// key in the accounts table; an account is deleted atomically with the
// purchase that consumes it.
type Account struct {
	Email       string `bson:"email" json:"email"`
	Name        string `bson:"name" json:"name"`
	Price       int64  `bson:"price" json:"price"`
	Password    string `bson:"password" json:"password"`
	Description string `bson:"description" json:"description"`
	Note        string `bson:"note" json:"note"`
}
