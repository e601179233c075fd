// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/orderdesk/services/resolver"
)

func TestClient_QueryOrders_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify auth header
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if r.URL.Path != "/orders/query" {
			t.Errorf("path = %q, want /orders/query", r.URL.Path)
		}

		// Verify request body
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Filters["poNumber"] != "22-12345-67890" {
			t.Errorf("filter = %v, want poNumber filter", req.Filters)
		}
		if req.Page != 0 {
			t.Errorf("exact lookup should be unpaged, got page %d", req.Page)
		}

		json.NewEncoder(w).Encode(queryResponse{
			Orders: []resolver.RawOrder{{"internalId": "1001"}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	orders, err := client.QueryOrders(context.Background(), resolver.OrderQuery{
		Filters: resolver.FieldMap{"poNumber": "22-12345-67890"},
		Fields:  []string{"internalId"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("QueryOrders() error = %v", err)
	}
	if len(orders) != 1 || orders[0].ID() != "1001" {
		t.Errorf("orders = %v, want one order 1001", orders)
	}
}

func TestClient_QueryOrders_WindowAndPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.DateFrom == "" || req.DateTo == "" {
			t.Error("scan queries must carry the date window")
		}
		if req.Page != 3 || req.PageSize != 100 {
			t.Errorf("page/page_size = %d/%d, want 3/100", req.Page, req.PageSize)
		}

		json.NewEncoder(w).Encode(queryResponse{Orders: []resolver.RawOrder{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	now := time.Now()
	_, err := client.QueryOrders(context.Background(), resolver.OrderQuery{
		From:     now.AddDate(0, 0, -7),
		To:       now,
		Page:     3,
		PageSize: 100,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("QueryOrders() error = %v", err)
	}
}

func TestClient_QueryOrders_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(queryResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	_, err := client.QueryOrders(context.Background(), resolver.OrderQuery{
		Filters: resolver.FieldMap{"internalId": "1"},
		Timeout: 50 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !resolver.IsUpstreamTimeout(err) {
		t.Errorf("error should classify as upstream timeout, got %v", err)
	}
}

func TestClient_QueryOrders_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "integration role lacks permission", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	_, err := client.QueryOrders(context.Background(), resolver.OrderQuery{
		Filters: resolver.FieldMap{"internalId": "1"},
		Timeout: 5 * time.Second,
	})

	var upstream *resolver.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if upstream.Timeout {
		t.Error("HTTP 403 must not classify as a timeout")
	}
}

func TestClient_QueryOrders_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(queryResponse{
			Error: &apiError{Code: "INVALID_FILTER", Message: "salesChannel is not filterable"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	_, err := client.QueryOrders(context.Background(), resolver.OrderQuery{
		Filters: resolver.FieldMap{"salesChannel": "eBay"},
		Timeout: 5 * time.Second,
	})
	if err == nil {
		t.Fatal("expected API-level error to surface")
	}
}

func TestClient_LookupItems(t *testing.T) {
	price := 12.50
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/lookup" {
			t.Errorf("path = %q, want /items/lookup", r.URL.Path)
		}

		var req itemsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.SKUs) != 2 {
			t.Errorf("skus = %v, want 2 entries", req.SKUs)
		}

		json.NewEncoder(w).Encode(itemsResponse{
			Items: map[string]resolver.ItemInfo{
				"COMP-1": {Name: "Component One", Price: &price},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	items, err := client.LookupItems(context.Background(), []string{"COMP-1", "COMP-2"})
	if err != nil {
		t.Fatalf("LookupItems() error = %v", err)
	}

	info, ok := items["COMP-1"]
	if !ok || info.Name != "Component One" || info.Price == nil || *info.Price != 12.50 {
		t.Errorf("items = %v", items)
	}
	if _, present := items["COMP-2"]; present {
		t.Error("missing SKU must be absent, not zero-valued")
	}
}

func TestClient_LookupItems_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(itemsResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	items, err := client.LookupItems(context.Background(), []string{"X"})
	if err != nil {
		t.Fatalf("LookupItems() error = %v", err)
	}
	if items == nil {
		t.Error("nil items map should normalize to empty")
	}
}
