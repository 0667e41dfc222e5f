package keywords

import (
	"context"
	"errors"
	"testing"

	"landseek/models"
)

func TestParseFilter_FullPayload(t *testing.T) {
	raw := `{
		"address": "서울시 강남구",
		"transaction_type": ["매매", "전세"],
		"building_type": ["아파트"],
		"sale_price": [500000000, 1000000000],
		"deposit": null,
		"monthly_rent": null,
		"area_range": "30평대"
	}`

	filter, err := ParseFilter(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Address != "서울시 강남구" {
		t.Errorf("address = %q", filter.Address)
	}
	if len(filter.TransactionTypes) != 2 {
		t.Errorf("transaction types = %v", filter.TransactionTypes)
	}
	if filter.SalePrice == nil || filter.SalePrice.Min != 500_000_000 || filter.SalePrice.Max != 1_000_000_000 {
		t.Errorf("sale price = %+v", filter.SalePrice)
	}
	if filter.Deposit != nil || filter.MonthlyRent != nil {
		t.Errorf("null ranges should stay nil")
	}
	if filter.AreaBucket != "30평대" {
		t.Errorf("area bucket = %q", filter.AreaBucket)
	}
}

func TestParseFilter_SingleElementIsUpperBound(t *testing.T) {
	raw := `{
		"address": "경기도 수원시",
		"transaction_type": ["월세"],
		"building_type": ["원룸"],
		"deposit": [50000000],
		"monthly_rent": [800000]
	}`

	filter, err := ParseFilter(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Deposit.Min != 0 || filter.Deposit.Max != 50_000_000 {
		t.Errorf("deposit = %+v", filter.Deposit)
	}
	if filter.MonthlyRent.Min != 0 || filter.MonthlyRent.Max != 800_000 {
		t.Errorf("monthly rent = %+v", filter.MonthlyRent)
	}
}

func TestParseFilter_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"province only", `{"address":"서울시","transaction_type":["매매"],"building_type":["아파트"]}`},
		{"no transaction type", `{"address":"서울시 강남구","transaction_type":[],"building_type":["아파트"]}`},
		{"unknown transaction type", `{"address":"서울시 강남구","transaction_type":["반전세"],"building_type":["아파트"]}`},
		{"unknown building type", `{"address":"서울시 강남구","transaction_type":["매매"],"building_type":["궁전"]}`},
		{"inverted range", `{"address":"서울시 강남구","transaction_type":["매매"],"building_type":["아파트"],"sale_price":[1000000000,500000000]}`},
		{"too many elements", `{"address":"서울시 강남구","transaction_type":["매매"],"building_type":["아파트"],"sale_price":[1,2,3]}`},
		{"unknown area bucket", `{"address":"서울시 강남구","transaction_type":["매매"],"building_type":["아파트"],"area_range":"80평대"}`},
		{"not json", `I could not find an address in the query.`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseFilter(tc.raw); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestParseFilter_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"address\":\"부산시 해운대구\",\"transaction_type\":[\"전세\"],\"building_type\":[\"오피스텔\"]}\n```"

	filter, err := ParseFilter(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Address != "부산시 해운대구" {
		t.Errorf("address = %q", filter.Address)
	}
}

type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return s.reply, s.err
}

func TestChatExtractor_PropagatesClientError(t *testing.T) {
	ext := NewChatExtractor(&stubCompleter{err: errors.New("rate limited")})
	if _, err := ext.Extract(context.Background(), "강남 아파트"); err == nil {
		t.Fatalf("expected error from chat client")
	}
}

func TestChatExtractor_ParsesValidReply(t *testing.T) {
	ext := NewChatExtractor(&stubCompleter{
		reply: `{"address":"서울시 강남구","transaction_type":["매매"],"building_type":["아파트"]}`,
	})

	filter, err := ext.Extract(context.Background(), "강남 아파트 매매")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.TransactionTypes[0] != models.TransactionSale {
		t.Errorf("transaction type = %v", filter.TransactionTypes)
	}
}
