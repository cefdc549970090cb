package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hcm-apartment-pricing/services"
)

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	Area        float64 `json:"area" validate:"gt=20,lte=300"`
	District    string  `json:"district" validate:"required"`
	Rooms       int     `json:"rooms" validate:"gte=1,lte=5"`
	Bathrooms   int     `json:"bathrooms" validate:"gte=1,lte=4"`
	Furnishing  string  `json:"furnishing" validate:"oneof=Cao_cap Co_ban Day_du Khong_noi_that Tho"`
	LegalStatus string  `json:"legal_status" validate:"oneof=Dang_cho_so Hop_dong_dat_coc Hop_dong_mua_ban Khac So_hong_rieng"`
	DistanceKm  float64 `json:"distance_to_center_km" validate:"gte=0,lte=25"`
}

// Attributes converts the request into the model's input record.
func (r PredictRequest) Attributes() services.ListingAttributes {
	return services.ListingAttributes{
		Area:        r.Area,
		Rooms:       float64(r.Rooms),
		Bathrooms:   float64(r.Bathrooms),
		DistanceKm:  r.DistanceKm,
		District:    strings.TrimSpace(r.District),
		LegalStatus: r.LegalStatus,
		Furnishing:  r.Furnishing,
	}
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationErrors flattens a validator error into per-field messages.
// Errors that are not field errors yield nil.
func validationErrors(err error) []FieldError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	out := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Message: formatFieldError(fe)})
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
