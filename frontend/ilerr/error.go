package ilerr

import (
	"fmt"
	"log/slog"
	"slices"
)

// Errors is an append-only list of diagnostics. A nil *Errors is empty.
type Errors struct {
	errs []IleError
}

func (r *Errors) With(err ...IleError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []IleError {
	if r == nil {
		return nil
	}
	return r.errs
}

// HasError reports whether any diagnostic of error severity was recorded;
// warnings do not count
func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return slices.ContainsFunc(r.errs, func(e IleError) bool {
		return SeverityOf(e) == SeverityError
	})
}

// WithCode returns the diagnostics carrying code, in the order they were recorded
func (r *Errors) WithCode(code ErrCode) []IleError {
	var out []IleError
	for _, e := range r.Errors() {
		if e.Code() == code {
			out = append(out, e)
		}
	}
	return out
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
