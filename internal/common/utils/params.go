package utils

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// PathInt64 reads a positive integer route variable
func PathInt64(r *http.Request, key string) (int64, bool) {
	v, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
