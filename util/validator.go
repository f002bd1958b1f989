package util

import "github.com/go-playground/validator/v10"

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("latitude", validateLatitude)
	validate.RegisterValidation("longitude", validateLongitude)
	validate.RegisterValidation("vote_type", validateVoteType)
	validate.RegisterValidation("period_type", validatePeriodType)
	validate.RegisterValidation("review_status", validateReviewStatus)
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

func validateVoteType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "upvote", "downvote":
		return true
	}
	return false
}

func validatePeriodType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly":
		return true
	}
	return false
}

func validateReviewStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "approved", "flagged", "rejected", "resolved":
		return true
	}
	return false
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
