package middleware

import (
	"net/http"

	"github.com/MrEthical07/localauth"
)

type requestForm struct {
	r *http.Request
}

// RequestForm adapts a form-encoded request body to [localauth.FormReader].
func RequestForm(r *http.Request) localauth.FormReader {
	return requestForm{r: r}
}

func (f requestForm) Value(field string) string {
	return f.r.PostFormValue(field)
}
