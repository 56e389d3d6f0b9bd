package replset

import "testing"

func TestParseSeedListBasic(t *testing.T) {
	sl, err := ParseSeedList("rs0/a:1,b:2,c:3", nil)
	if err != nil {
		t.Fatalf("ParseSeedList: %v", err)
	}
	if sl.SetName != "rs0" {
		t.Errorf("SetName = %q, want rs0", sl.SetName)
	}
	if len(sl.Seeds) != 3 {
		t.Fatalf("len(Seeds) = %d, want 3", len(sl.Seeds))
	}
}

func TestParseSeedListEmptySeeds(t *testing.T) {
	sl, err := ParseSeedList("rs0/", nil)
	if err != nil {
		t.Fatalf("ParseSeedList: %v", err)
	}
	if sl.SetName != "rs0" || len(sl.Seeds) != 0 {
		t.Errorf("ParseSeedList(%q) = %+v", "rs0/", sl)
	}
}

func TestParseSeedListFiltersSelf(t *testing.T) {
	self := SelfCheckerFunc(func(h HostPort) bool { return h == "b:2" })
	sl, err := ParseSeedList("rs0/a:1,b:2,c:3", self)
	if err != nil {
		t.Fatalf("ParseSeedList: %v", err)
	}
	for _, h := range sl.Seeds {
		if h == "b:2" {
			t.Error("self host should have been filtered out of the seed list")
		}
	}
	if len(sl.Seeds) != 2 {
		t.Errorf("len(Seeds) = %d, want 2", len(sl.Seeds))
	}
}

func TestParseSeedListRejectsDuplicates(t *testing.T) {
	if _, err := ParseSeedList("rs0/a:1,a:1", nil); err == nil {
		t.Error("expected error for duplicate seed host")
	}
}

func TestParseSeedListRejectsMissingSlash(t *testing.T) {
	if _, err := ParseSeedList("rs0-a:1,b:2", nil); err == nil {
		t.Error("expected error for missing '/'")
	}
}

func TestSeedListStringRoundTrip(t *testing.T) {
	sl, err := ParseSeedList("rs0/a:1,b:2", nil)
	if err != nil {
		t.Fatalf("ParseSeedList: %v", err)
	}
	if got, want := sl.String(), "rs0/a:1,b:2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
