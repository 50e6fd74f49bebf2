package middleware

import (
	"encoding/json"
	"net/http"
)

func jsonDecode(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
