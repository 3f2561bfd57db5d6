package elastic_search

import (
	"fmt"
)

type Indices string

var (
	ActivityIndex Indices = "activity"
)

// Get prefixes the index with network and index name, e.g. zilliqa.marketplace.activity
func (i Indices) Get(network, name string) string {
	return fmt.Sprintf("%s.%s.%s", network, name, string(i))
}
