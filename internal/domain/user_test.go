package domain

import (
	"reflect"
	"testing"
)

func TestLocationHierarchy(t *testing.T) {
	tests := []struct {
		name string
		user User
		want []string
	}{
		{
			name: "all levels set",
			user: User{SubDistrict: "andheri", District: "suburban", City: "mumbai", State: "maharashtra"},
			want: []string{"andheri", "suburban", "mumbai", "maharashtra"},
		},
		{
			name: "gaps skipped",
			user: User{City: "mumbai", State: "maharashtra"},
			want: []string{"mumbai", "maharashtra"},
		},
		{
			name: "no location",
			user: User{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.LocationHierarchy(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LocationHierarchy() = %v, want %v", got, tt.want)
			}
		})
	}
}
