package validator

import (
	"strings"
	"testing"
)

type chargeParams struct {
	DeviceType string  `json:"device_type" schema:"required,enum:battery|ev_charger"`
	Rate       float64 `json:"rate,omitempty" schema:"min:0.5,max:22"`
	Label      string  `json:"label,omitempty" schema:"min:3,max:8"`
	Slots      int     `json:"slots,omitempty" schema:"max:4"`
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		params  chargeParams
		wantErr string
	}{
		{
			name:   "valid",
			params: chargeParams{DeviceType: "battery", Rate: 7.4, Label: "home", Slots: 2},
		},
		{
			name:    "missing required",
			params:  chargeParams{Rate: 7.4},
			wantErr: `"device_type" is required`,
		},
		{
			name:    "enum violation",
			params:  chargeParams{DeviceType: "toaster"},
			wantErr: "must be one of",
		},
		{
			name:    "numeric below min",
			params:  chargeParams{DeviceType: "battery", Rate: 0.1},
			wantErr: `"rate" must be at least 0.5`,
		},
		{
			name:    "numeric above max",
			params:  chargeParams{DeviceType: "ev_charger", Rate: 50},
			wantErr: `"rate" must be at most 22`,
		},
		{
			name:    "string too short",
			params:  chargeParams{DeviceType: "battery", Label: "ab"},
			wantErr: `"label" must be at least 3`,
		},
		{
			name:    "string too long",
			params:  chargeParams{DeviceType: "battery", Label: "unreasonably-long"},
			wantErr: `"label" must be at most 8`,
		},
		{
			name:    "int above max",
			params:  chargeParams{DeviceType: "battery", Slots: 9},
			wantErr: `"slots" must be at most 4`,
		},
		{
			name:   "zero optional fields skip bounds",
			params: chargeParams{DeviceType: "battery"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.params)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid params, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidatePointerAndNil(t *testing.T) {
	if err := Validate((*chargeParams)(nil)); err != nil {
		t.Fatalf("nil pointer must validate as empty, got %v", err)
	}
	if err := Validate(&chargeParams{DeviceType: "battery"}); err != nil {
		t.Fatalf("pointer params must validate like values, got %v", err)
	}
}

func TestValidateNonStruct(t *testing.T) {
	if err := Validate(42); err == nil {
		t.Fatal("expected an error for non-struct params")
	}
}

func TestValidateUntaggedFieldsIgnored(t *testing.T) {
	type params struct {
		Free string `json:"free"`
	}
	if err := Validate(params{}); err != nil {
		t.Fatalf("untagged fields must not be validated, got %v", err)
	}
}
