package domain

// FixedCosts holds the monthly fixed cost components of a freelancer.
// All fields are in USD per month and must be non-negative.
type FixedCosts struct {
	Rent      float64 `json:"rent"`
	Equipment float64 `json:"equipment"`
	Insurance float64 `json:"insurance"`
	Utilities float64 `json:"utilities"`
	Taxes     float64 `json:"taxes"`
}

// NewFixedCosts builds a FixedCosts value, rejecting negative components.
func NewFixedCosts(rent, equipment, insurance, utilities, taxes float64) (FixedCosts, error) {
	fields := map[string]float64{
		"rent":      rent,
		"equipment": equipment,
		"insurance": insurance,
		"utilities": utilities,
		"taxes":     taxes,
	}
	for name, v := range fields {
		if v < 0 {
			return FixedCosts{}, &ErrValidation{Field: name, Message: "must not be negative"}
		}
	}
	return FixedCosts{
		Rent:      rent,
		Equipment: equipment,
		Insurance: insurance,
		Utilities: utilities,
		Taxes:     taxes,
	}, nil
}

// Total is the exact sum of all fixed cost components.
func (f FixedCosts) Total() float64 {
	return f.Rent + f.Equipment + f.Insurance + f.Utilities + f.Taxes
}

// VariableCosts holds the monthly variable cost components.
// All fields are in USD per month and must be non-negative.
type VariableCosts struct {
	Materials   float64 `json:"materials"`
	Outsourcing float64 `json:"outsourcing"`
	Marketing   float64 `json:"marketing"`
}

// NewVariableCosts builds a VariableCosts value, rejecting negative components.
func NewVariableCosts(materials, outsourcing, marketing float64) (VariableCosts, error) {
	fields := map[string]float64{
		"materials":   materials,
		"outsourcing": outsourcing,
		"marketing":   marketing,
	}
	for name, v := range fields {
		if v < 0 {
			return VariableCosts{}, &ErrValidation{Field: name, Message: "must not be negative"}
		}
	}
	return VariableCosts{
		Materials:   materials,
		Outsourcing: outsourcing,
		Marketing:   marketing,
	}, nil
}

// Total is the exact sum of all variable cost components.
func (v VariableCosts) Total() float64 {
	return v.Materials + v.Outsourcing + v.Marketing
}
