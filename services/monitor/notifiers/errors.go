package notifiers

import "net/http"

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return "non-2xx HTTP status code: " + http.StatusText(int(e))
}

type errRejected string

func (e errRejected) Error() string {
	return "delivery rejected by the provider: " + string(e)
}
