package test

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/expert-class/core/payment/duitku"
	mock "github.com/stripe/stripe-mock/param"
)

// mockDuitku answers like the Duitku sandbox. Amounts 13 and 17 trigger
// an HTTP error and a rejected response code.
type mockDuitku struct {
	inquiries atomic.Int32
}

func (m *mockDuitku) handle() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/paymentmethod/getpaymentmethod", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch req["amount"] {
		case "13":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"Message": "Merchant not found"})
			return
		case "17":
			json.NewEncoder(w).Encode(map[string]string{"responseCode": "99", "responseMessage": "Amount rejected"})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"paymentFee": []map[string]string{
				{"paymentMethod": "BC", "paymentName": "BCA VA", "paymentImage": "bca.png", "totalFee": "4000"},
				{"paymentMethod": "SP", "paymentName": "ShopeePay QRIS", "paymentImage": "qris.png", "totalFee": "0"},
			},
			"responseCode":    duitku.CodeSuccess,
			"responseMessage": "SUCCESS",
		})
	}).Methods(http.MethodPost)

	r.HandleFunc("/v2/inquiry", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OrderID string `json:"merchantOrderId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		m.inquiries.Add(1)

		json.NewEncoder(w).Encode(map[string]string{
			"merchantCode":  merchant,
			"reference":     "DK-" + req.OrderID,
			"paymentUrl":    "https://sandbox.duitku.com/topup/" + req.OrderID,
			"vaNumber":      "8801234567",
			"statusCode":    duitku.CodeSuccess,
			"statusMessage": "SUCCESS",
		})
	}).Methods(http.MethodPost)

	return r
}

// mockStripe serves checkout sessions, answering 400 when the line item
// does not carry the expected amount in minor units.
type mockStripe struct {
	unitAmount atomic.Int64
}

func (m *mockStripe) handle() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		lines, _ := params["line_items"].(map[string]any)
		item, _ := lines["0"].(map[string]any)
		pd, _ := item["price_data"].(map[string]any)
		if pd["unit_amount"] != strconv.FormatInt(m.unitAmount.Load(), 10) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ref, _ := params["client_reference_id"].(string)
		id := "cs_test_" + ref
		json.NewEncoder(w).Encode(map[string]any{
			"id":   id,
			"url":  "https://checkout.stripe.com/c/pay/" + id,
			"mode": "payment",
		})
	}).Methods(http.MethodPost)

	return r
}
