// Public domain.

package toa_test

import (
	"strings"
	"testing"

	"github.com/LuluAgazie/PINT/toa"
)

const timSample = `FORMAT 1
MODE 1
C a comment line
# another comment

 1748-2021E.430 430.000 53801.38605118469 21.710 ao -f 430_ASP
 1748-2021E.430 430.000 53750.00000000000 18.300 ao
 1748-2021E.lwide 1410.0 53820.22916624556 3.910 gbt -f L-wide_PUPPI -be PUPPI
`

func TestReadTim(t *testing.T) {
	toas, err := toa.ReadTim(strings.NewReader(timSample))
	if err != nil {
		t.Fatal(err)
	}
	if len(toas) != 3 {
		t.Fatal("parsed observations:", len(toas))
	}
	// sorted by arrival time
	if toas[0].MJD != 53750 {
		t.Fatal("sort order:", toas[0].MJD)
	}
	if toas[0].Err != 18.3e-6 {
		t.Fatal("uncertainty:", toas[0].Err)
	}
	// group from -f flag when present, site otherwise
	if toas[0].Group != "ao" {
		t.Fatal("site group:", toas[0].Group)
	}
	if toas[1].Group != "430_ASP" {
		t.Fatal("flag group:", toas[1].Group)
	}
	if toas[2].Group != "L-wide_PUPPI" {
		t.Fatal("flag group with extra flags:", toas[2].Group)
	}
	if _, err := toa.NewSet(toas); err != nil {
		t.Fatal(err)
	}
}

var badTimCases = []string{
	"a b",
	"name 430 notamjd 21.7 ao",
	"name 430 53750.0 bad ao",
	"name 430 53750.0 21.7 ao junk trailing",
}

func TestReadTimBadLines(t *testing.T) {
	for i, c := range badTimCases {
		_, err := toa.ReadTim(strings.NewReader(c + "\n"))
		if err == nil {
			t.Fatal("case", i, "expected parse error")
		}
		t.Log("case", i, "-", err)
	}
}
