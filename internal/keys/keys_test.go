package keys

import "testing"

func TestClassifyDistinguishesCarFromRider(t *testing.T) {
	driverID := NewID()
	riderID := NewID()

	if got := Classify(CarSK(driverID)); got != KindCar {
		t.Fatalf("expected bare car sk to classify as Car, got %s", got)
	}
	if got := Classify(RiderSK(driverID, riderID)); got != KindRider {
		t.Fatalf("expected car+rider sk to classify as Rider, got %s", got)
	}
}

func TestClassifyDistinguishesPollFromOptionFromVote(t *testing.T) {
	pollID, optionID, userID := NewID(), NewID(), NewID()

	if got := Classify(PollSK(pollID)); got != KindPoll {
		t.Fatalf("expected bare poll sk to classify as Poll, got %s", got)
	}
	if got := Classify(PollOptionSK(pollID, optionID)); got != KindPollOption {
		t.Fatalf("expected poll+option sk to classify as PollOption, got %s", got)
	}
	if got := Classify(VoteSK(pollID, userID, optionID)); got != KindVote {
		t.Fatalf("expected poll+vote+option sk to classify as Vote, got %s", got)
	}
}

func TestClassifyDistinguishesIdeaListFromIdea(t *testing.T) {
	listID, ideaID := NewID(), NewID()

	if got := Classify(IdeaListSK(listID)); got != KindIdeaList {
		t.Fatalf("expected bare list sk to classify as IdeaList, got %s", got)
	}
	if got := Classify(IdeaSK(listID, ideaID)); got != KindIdea {
		t.Fatalf("expected list+idea sk to classify as Idea, got %s", got)
	}
}

func TestClassifyCanonicalByPartitionPrefix(t *testing.T) {
	gid, hid, sid := NewID(), NewID(), NewID()
	cases := []struct {
		pk   string
		want ItemKind
	}{
		{GroupPK(gid), KindGroupCanonical},
		{EventPK(hid), KindHangoutCanonical},
		{SeriesPK(sid), KindSeriesCanonical},
		{DevicePK("tok"), KindDevice},
		{RefreshPK("dev-1"), KindRefreshToken},
	}
	for _, tc := range cases {
		if got := ClassifyCanonical(tc.pk); got != tc.want {
			t.Errorf("ClassifyCanonical(%q) = %s, want %s", tc.pk, got, tc.want)
		}
	}
}

func TestParseVoteSKRoundTrip(t *testing.T) {
	pollID, userID, optionID := NewID(), NewID(), NewID()
	sk := VoteSK(pollID, userID, optionID)

	got, err := ParseVoteSK(sk)
	if err != nil {
		t.Fatalf("ParseVoteSK(%q) returned error: %v", sk, err)
	}
	if got.PollID != pollID || got.UserID != userID || got.OptionID != optionID {
		t.Fatalf("ParseVoteSK(%q) = %+v, want {%s %s %s}", sk, got, pollID, userID, optionID)
	}
}

func TestParseVoteSKRejectsMalformedKey(t *testing.T) {
	if _, err := ParseVoteSK("POLL#x#OPTION#y"); err == nil {
		t.Fatal("expected error parsing a poll-option key as a vote key")
	}
}

func TestParseRiderSKRoundTrip(t *testing.T) {
	driverID, riderID := NewID(), NewID()
	sk := RiderSK(driverID, riderID)

	got, err := ParseRiderSK(sk)
	if err != nil {
		t.Fatalf("ParseRiderSK(%q) returned error: %v", sk, err)
	}
	if got.DriverID != driverID || got.RiderID != riderID {
		t.Fatalf("ParseRiderSK(%q) = %+v, want {%s %s}", sk, got, driverID, riderID)
	}
}

func TestValidID(t *testing.T) {
	if !ValidID(NewID()) {
		t.Fatal("expected a freshly minted id to be valid")
	}
	if ValidID("not-a-uuid") {
		t.Fatal("expected a non-UUID string to be invalid")
	}
}

func TestRequireGroupIDRejectsMalformed(t *testing.T) {
	if err := RequireGroupID("abc123"); err == nil {
		t.Fatal("expected error for a non-UUID group id")
	}
	if err := RequireGroupID(NewID()); err != nil {
		t.Fatalf("expected a valid UUID to pass, got %v", err)
	}
}
