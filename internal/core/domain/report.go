package domain

import "time"

// ExpiryReport lists the items whose expiry date passed before AsOf.
type ExpiryReport struct {
	GeneratedAt time.Time `json:"generatedAt" bson:"generated_at"`
	AsOf        string    `json:"asOf" bson:"as_of"`
	Count       int       `json:"count" bson:"count"`
	Items       []Item    `json:"items" bson:"items"`
}
