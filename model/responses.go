// File: model/responses.go
package model

// ViewingKeyResponse carries a freshly issued viewing key. This is the only
// time the plaintext key leaves the ledger.
type ViewingKeyResponse struct {
	Key string `json:"key"`
}

// RecordsResponse lists every record of a collection in insertion order.
type RecordsResponse struct {
	Records []Record `json:"records"`
	Length  uint32   `json:"length"` // Number of records, header excluded
}

// RecordsPage is one page of a newest-first listing.
type RecordsPage struct {
	Records  []Record `json:"records"`
	Page     uint32   `json:"page"`
	PageSize uint32   `json:"pageSize"`
	Total    uint32   `json:"total"` // Number of records, header excluded
}

// DepositReceipt is returned to the depositor.
type DepositReceipt struct {
	Recipient string `json:"recipient"`
	Position  uint32 `json:"position"` // 0-based position among the recipient's records
	Created   bool   `json:"created"`  // True when the deposit provisioned the collection
}
