package catalog

import "time"

// Catalog models are tenant-scoped (tenant_id required everywhere).
// Prices are minor units (cents) using int64; a nil price means "not set".

// Service is a bookable offering.
type Service struct {
	ID       int64  `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`

	Description string `json:"description,omitempty" db:"description"`

	DurationMinutes int `json:"duration_minutes" db:"duration_minutes"`

	// PriceMinor nil means the price comes from the chosen option.
	PriceMinor *int64 `json:"price_minor,omitempty" db:"price_minor"`

	Active    bool `json:"active" db:"active"`
	SortOrder int  `json:"sort_order" db:"sort_order"`

	Options []ServiceOption `json:"options,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ServiceOption is a variant of a service (e.g. "Premium").
//
// Invariant: 1 <= MinQuantity <= DefaultQuantity <= MaxQuantity.
type ServiceOption struct {
	ID        int64  `json:"id" db:"id"`
	ServiceID int64  `json:"service_id" db:"service_id"`
	Name      string `json:"name" db:"name"`

	// DurationMinutes nil falls back to the service duration.
	DurationMinutes *int   `json:"duration_minutes,omitempty" db:"duration_minutes"`
	PriceMinor      *int64 `json:"price_minor,omitempty" db:"price_minor"`

	DefaultQuantity int `json:"default_quantity" db:"default_quantity"`
	MinQuantity     int `json:"min_quantity" db:"min_quantity"`
	MaxQuantity     int `json:"max_quantity" db:"max_quantity"`

	Active    bool `json:"active" db:"active"`
	SortOrder int  `json:"sort_order" db:"sort_order"`

	SubOptions []ServiceSubOption `json:"sub_options,omitempty"`
}

// ServiceSubOption is an add-on attached to an option.
type ServiceSubOption struct {
	ID       int64  `json:"id" db:"id"`
	OptionID int64  `json:"option_id" db:"option_id"`
	Name     string `json:"name,omitempty" db:"name"`

	PriceMinor *int64 `json:"price_minor,omitempty" db:"price_minor"`
}

// Option returns the option with id, or false.
func (s Service) Option(id int64) (ServiceOption, bool) {
	for _, o := range s.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ServiceOption{}, false
}

// ActiveOption returns the bookable option with id, or false.
func (s Service) ActiveOption(id int64) (ServiceOption, bool) {
	o, ok := s.Option(id)
	if !ok || !o.Active {
		return ServiceOption{}, false
	}
	return o, true
}

// SubOption returns the add-on with id, or false.
func (o ServiceOption) SubOption(id int64) (ServiceSubOption, bool) {
	for _, so := range o.SubOptions {
		if so.ID == id {
			return so, true
		}
	}
	return ServiceSubOption{}, false
}

// EffectiveDuration is the option's duration override, else the service duration.
func EffectiveDuration(s Service, o *ServiceOption) int {
	if o != nil && o.DurationMinutes != nil {
		return *o.DurationMinutes
	}
	return s.DurationMinutes
}

// ClampQuantity forces q into the option's [min, max]. Without an option the quantity is 1.
// A non-positive q is treated as "not given" and yields the option default.
func ClampQuantity(o *ServiceOption, q int) int {
	if o == nil {
		return 1
	}
	if q <= 0 {
		q = o.DefaultQuantity
	}
	if q < o.MinQuantity {
		q = o.MinQuantity
	}
	if q > o.MaxQuantity {
		q = o.MaxQuantity
	}
	if q < 1 {
		q = 1
	}
	return q
}
