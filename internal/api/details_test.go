package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "employer offer",
			raw:  `{"description":"Paint the fence","place_name":"Espoo, Finland","coordinates":[24.65,60.2],"text":"Espoo","job":true,"payMethod":"hourlyWage","wage":"15"}`,
		},
		{
			name: "employee notice",
			raw:  `{"description":"Available weekends","place_name":"Helsinki, Finland","coordinates":[24.94,60.17],"text":"Helsinki","job":false}`,
		},
		{
			name: "html characters kept",
			raw:  `{"description":"<b>Tom & Jerry</b>","job":true}`,
		},
		{
			name: "unicode",
			raw:  `{"description":"Ikkunanpesu, Jyväskylä","text":"Jyväskylä"}`,
		},
		{
			name: "update screen key order",
			raw:  `{"description":"Paint","payMethod":"hourlyWage","wage":"15","place_name":"Espoo, Finland","coordinates":[24.65,60.2],"text":"Espoo"}`,
		},
		{
			name: "empty pay terms kept",
			raw:  `{"description":"Paint","payMethod":"","wage":"","place_name":"Espoo, Finland","coordinates":[24.65,60.2],"text":"Espoo"}`,
		},
		{
			name: "unknown key kept",
			raw:  `{"description":"Paint","job":true,"extra":"keep me"}`,
		},
		{
			name: "whitespace and number formatting kept",
			raw:  `{ "description": "Paint", "coordinates": [24.650, 60.20] }`,
		},
		{
			name: "pay method of another type",
			raw:  `{"description":"Paint","payMethod":[],"wage":""}`,
		},
		{
			name: "legacy plain text",
			raw:  "just a plain description",
		},
		{
			name: "empty",
			raw:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EncodeDetails(DecodeDetails(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.raw, out)
		})
	}
}

func TestDecodeDetails(t *testing.T) {
	d := DecodeDetails(`{"description":"Dog walking","coordinates":[24.9,60.1],"job":true,"payMethod":"fixedPrice","wage":"40"}`)

	assert.Equal(t, "Dog walking", d.Description)
	assert.Equal(t, []float64{24.9, 60.1}, d.Coordinates)
	assert.True(t, d.IsJobOffer())
	assert.Equal(t, PayFixed, d.PayMethod)
	assert.Equal(t, "40", d.Wage)
}

func TestDecodeDetails_BrokenJSONIsPlain(t *testing.T) {
	d := DecodeDetails(`{"description": oops`)
	assert.Equal(t, `{"description": oops`, d.Description)
	assert.False(t, d.IsJobOffer())

	out, err := EncodeDetails(d)
	require.NoError(t, err)
	assert.Equal(t, `{"description": oops`, out)
}

func TestEncodeDetails_PlainPromotedWhenEnriched(t *testing.T) {
	d := DecodeDetails("old text")
	d.PlaceName = "Vantaa, Finland"

	out, err := EncodeDetails(d)
	require.NoError(t, err)
	assert.Equal(t, `{"description":"old text","place_name":"Vantaa, Finland"}`, out)
}

func TestDecodeProfile(t *testing.T) {
	assert.Equal(t, Profile{FullName: "Jane Doe", Employer: true}, decodeProfile(`{"full_name":"Jane Doe","employer":true}`))
	assert.Equal(t, Profile{FullName: "Plain Name"}, decodeProfile("Plain Name"))

	raw, err := encodeProfile(Profile{FullName: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, `{"full_name":"Jane Doe","employer":false}`, raw)
}

func TestEncodeDetails_EditKeepsStoredShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		edit func(*JobDetails)
		want string
	}{
		{
			name: "key order and empty keys",
			raw:  `{"description":"Paint","payMethod":"","wage":"","place_name":"Espoo, Finland"}`,
			edit: func(d *JobDetails) { d.Description = "Paint the fence" },
			want: `{"description":"Paint the fence","payMethod":"","wage":"","place_name":"Espoo, Finland"}`,
		},
		{
			name: "unknown keys survive",
			raw:  `{"description":"Paint","extra":{"a":1},"wage":"15"}`,
			edit: func(d *JobDetails) { d.Wage = "20" },
			want: `{"description":"Paint","extra":{"a":1},"wage":"20"}`,
		},
		{
			name: "new keys appended",
			raw:  `{"wage":"15","description":"Paint"}`,
			edit: func(d *JobDetails) { d.SetJob(true); d.Text = "Espoo" },
			want: `{"wage":"15","description":"Paint","text":"Espoo","job":true}`,
		},
		{
			name: "wrong type replaced once set",
			raw:  `{"description":"Paint","payMethod":[]}`,
			edit: func(d *JobDetails) { d.PayMethod = PayFixed },
			want: `{"description":"Paint","payMethod":"fixedPrice"}`,
		},
		{
			name: "coordinates edited in place",
			raw:  `{"description":"Paint","coordinates":[24.65,60.2]}`,
			edit: func(d *JobDetails) { d.Coordinates[0] = 25.0 },
			want: `{"description":"Paint","coordinates":[25,60.2]}`,
		},
		{
			name: "job flag flipped in place",
			raw:  `{"description":"Paint","job":true}`,
			edit: func(d *JobDetails) { *d.Job = false },
			want: `{"description":"Paint","job":false}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecodeDetails(tt.raw)
			tt.edit(&d)
			out, err := EncodeDetails(d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
