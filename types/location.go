package types

// Location is a scheduling lane/venue. It has no owner and is never created
// or deleted by the client.
type Location struct {
	Id        int64  `json:"id" mapstructure:"id" gorm:"primaryKey"`
	Name      string `json:"name" mapstructure:"name"`
	StreamURL string `json:"stream_url,omitempty" mapstructure:"stream_url"`
}
