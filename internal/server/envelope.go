package server

import (
	"encoding/json"
	"fmt"

	"github.com/puetzp/pullconf/internal/catalog"
)

func marshalEnvelope(host string, c *catalog.Catalog) ([]byte, error) {
	env := catalog.Envelope{
		Links: catalog.Links{Self: fmt.Sprintf("/api/clients/%s/resources", host)},
		Data:  c.Resources,
	}
	return json.Marshal(env)
}
