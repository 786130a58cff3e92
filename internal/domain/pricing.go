package domain

import "fmt"

// baggageSurcharge maps the allowed extra-baggage tiers (kg) to their
// surcharge in currency units. Values outside the table are rejected,
// never clamped, so an unknown tier can never ride for free.
var baggageSurcharge = map[int]int64{
	2:  0,
	5:  500,
	10: 1000,
	15: 1500,
	20: 2000,
}

// BaggageSurcharge returns the surcharge for an extra-baggage tier.
func BaggageSurcharge(kg int) (int64, error) {
	s, ok := baggageSurcharge[kg]
	if !ok {
		return 0, ValidationError{Field: "extra_baggage", Message: fmt.Sprintf("baggage must be one of 2, 5, 10, 15 or 20 kg, got %d", kg)}
	}
	return s, nil
}

// ComputeTotal prices a reservation: flight base fare plus the meal
// price plus the baggage tier surcharge.
func ComputeTotal(basePrice, mealOption int64, extraBaggageKg int) (int64, error) {
	if basePrice < 0 {
		return 0, ValidationError{Field: "base_price", Message: "base price must be non-negative"}
	}
	if mealOption < 0 {
		return 0, ValidationError{Field: "meal_option", Message: "meal option must be non-negative"}
	}
	surcharge, err := BaggageSurcharge(extraBaggageKg)
	if err != nil {
		return 0, err
	}
	return basePrice + mealOption + surcharge, nil
}
