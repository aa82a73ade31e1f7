package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/tuition"
)

const (
	defaultNearRadiusKm = 10.0
	maxNearRadiusKm     = 50.0
)

type (
	MessageResponse struct {
		Message string `json:"message"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	VerifyRequest struct {
		Verified *bool `json:"verified" validate:"required"`
	}

	ToggleRequest struct {
		Enabled *bool `json:"enabled" validate:"required"`
	}
)

// bind decodes the request into `dst`; malformed input is a validation error.
func bind(ctx echo.Context, dst interface{}) error {
	if err := ctx.Bind(dst); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			if msg, ok := herr.Message.(string); ok {
				return core.NewValidationError(errors.New(msg))
			}
		}
		return core.NewValidationError(errors.New("malformed request body"))
	}
	return nil
}

// optionalBool reads a boolean query parameter; nil when absent.
func optionalBool(ctx echo.Context, name string) (*bool, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a boolean"})
	}
	return &b, nil
}

// nearParams reads the optional lat/lng/radius_km search circle.
func nearParams(ctx echo.Context) (*core.Near, error) {
	if ctx.QueryParam("lat") == "" && ctx.QueryParam("lng") == "" {
		return nil, nil
	}
	near := core.Near{RadiusKm: defaultNearRadiusKm}
	err := echo.QueryParamsBinder(ctx).
		MustFloat64("lat", &near.Lat).
		MustFloat64("lng", &near.Lng).
		Float64("radius_km", &near.RadiusKm).
		BindError()
	if err != nil {
		return nil, core.NewValidationError(errors.New("lat and lng are required and must be numbers"))
	}
	if near.Lat < -90 || near.Lat > 90 || near.Lng < -180 || near.Lng > 180 {
		return nil, core.NewValidationError(errors.New("lat/lng out of range"))
	}
	if near.RadiusKm <= 0 {
		near.RadiusKm = defaultNearRadiusKm
	}
	if near.RadiusKm > maxNearRadiusKm {
		near.RadiusKm = maxNearRadiusKm
	}
	return &near, nil
}

func bindTeacherFilter(ctx echo.Context) (profile.TeacherFilter, error) {
	var f profile.TeacherFilter
	err := echo.QueryParamsBinder(ctx).
		String("subject", &f.Subject).
		String("class_level", &f.ClassLevel).
		Int("min_salary", &f.MinSalary).
		Int("max_salary", &f.MaxSalary).
		String("university", &f.University).
		String("department", &f.Department).
		String("job_title", &f.JobTitle).
		Float64("min_rating", &f.MinRating).
		Float64("max_rating", &f.MaxRating).
		BindError()
	if err != nil {
		return f, core.NewValidationError(errors.New("invalid search parameters"))
	}
	if f.Near, err = nearParams(ctx); err != nil {
		return f, err
	}
	if f.Verified, err = optionalBool(ctx, "verified"); err != nil {
		return f, err
	}
	return f, nil
}

func bindPostFilter(ctx echo.Context) (tuition.PostFilter, error) {
	var f tuition.PostFilter
	var subjects string
	err := echo.QueryParamsBinder(ctx).
		String("subject", &f.Subject).
		String("subjects", &subjects).
		String("class_level", &f.ClassLevel).
		String("city", &f.City).
		Int("min_salary", &f.MinSalary).
		Int("max_salary", &f.MaxSalary).
		BindError()
	if err != nil {
		return f, core.NewValidationError(errors.New("invalid search parameters"))
	}
	if subjects != "" {
		f.Subjects = strings.Split(subjects, ",")
	}
	if f.Near, err = nearParams(ctx); err != nil {
		return f, err
	}
	return f, nil
}

func bindNearbyQuery(ctx echo.Context) (tuition.NearbyQuery, error) {
	var nq tuition.NearbyQuery
	var lat, lng float64
	err := echo.QueryParamsBinder(ctx).
		Float64("lat", &lat).
		Float64("lng", &lng).
		Float64("radius_km", &nq.RadiusKm).
		Bool("with_distance", &nq.WithDistance).
		String("class_level", &nq.ClassLevel).
		String("subjects", &nq.Subjects).
		String("city", &nq.City).
		Int("page", &nq.Page.Page).
		Int("limit", &nq.Page.Limit).
		BindError()
	if err != nil {
		return nq, core.NewValidationError(errors.New("lat and lng are required and must be numbers"))
	}
	if ctx.QueryParam("lat") != "" {
		nq.Lat = &lat
	}
	if ctx.QueryParam("lng") != "" {
		nq.Lng = &lng
	}
	return nq, nq.Validate()
}
