package roster

import (
	"testing"

	"github.com/lumine/darshan-bookings/internal/platform/session"
)

func testUser() *session.User {
	return &session.User{
		ID:       7,
		Email:    "Primary@Example.com",
		FullName: "Asha Patel",
	}
}

func TestNewSeedsPrimaryFromUser(t *testing.T) {
	r := New(testUser())

	if r.Len() != 1 {
		t.Fatalf("expected one seeded member, got %d", r.Len())
	}
	members := r.Members()
	if members[0].Name != "Asha Patel" {
		t.Errorf("primary name = %q, want %q", members[0].Name, "Asha Patel")
	}
	if r.PrimaryEmail() != "primary@example.com" {
		t.Errorf("primary email = %q, want normalized lowercase", r.PrimaryEmail())
	}
}

func TestNewNilUser(t *testing.T) {
	r := New(nil)

	if r.Len() != 1 {
		t.Fatalf("expected one blank member, got %d", r.Len())
	}
	if m := r.Members()[0]; m.Name != "" || m.LocalID == "" {
		t.Errorf("blank primary should have empty name and a local id, got %+v", m)
	}
}

func TestAddAndRemove(t *testing.T) {
	r := New(testUser())
	added := r.Add()

	if r.Len() != 2 {
		t.Fatalf("expected 2 members after add, got %d", r.Len())
	}
	if !r.Remove(added.LocalID) {
		t.Fatal("expected removal of added member to succeed")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 member after remove, got %d", r.Len())
	}
}

func TestRemoveRefusesLastMember(t *testing.T) {
	r := New(testUser())
	primary := r.Members()[0]

	if r.Remove(primary.LocalID) {
		t.Fatal("removing the last remaining member must be refused")
	}
	if r.Len() != 1 {
		t.Fatalf("roster length changed on refused removal: %d", r.Len())
	}
}

func TestRemoveUnknownID(t *testing.T) {
	r := New(testUser())
	r.Add()

	if r.Remove("no-such-id") {
		t.Fatal("removal of unknown id should report false")
	}
	if r.Len() != 2 {
		t.Fatalf("roster length changed on missing id: %d", r.Len())
	}
}

func TestUpdateFields(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	r.Update(m.LocalID, "name", "  Ravi Kumar  ")
	r.Update(m.LocalID, "age", "34")
	r.Update(m.LocalID, "gender", "male")
	r.Update(m.LocalID, "aadhaar", "123456789012")

	got, ok := r.Get(m.LocalID)
	if !ok {
		t.Fatal("member disappeared after updates")
	}
	if got.Name != "Ravi Kumar" {
		t.Errorf("name = %q, want trimmed value", got.Name)
	}
	if got.Age == nil || *got.Age != 34 {
		t.Errorf("age = %v, want 34", got.Age)
	}
	if got.Gender == nil || string(*got.Gender) != "male" {
		t.Errorf("gender = %v, want male", got.Gender)
	}
	if got.Aadhaar != "123456789012" {
		t.Errorf("aadhaar = %q", got.Aadhaar)
	}
}

func TestUpdateInvalidAgeClearsValue(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	r.Update(m.LocalID, "age", "30")
	r.Update(m.LocalID, "age", "not-a-number")
	if got, _ := r.Get(m.LocalID); got.Age != nil {
		t.Errorf("unparseable age should clear the field, got %v", *got.Age)
	}

	r.Update(m.LocalID, "age", "0")
	if got, _ := r.Get(m.LocalID); got.Age != nil {
		t.Errorf("out-of-range age should clear the field, got %v", *got.Age)
	}
}

func TestUpdateUnknownFieldIgnored(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	if r.Update(m.LocalID, "shoe_size", "42") {
		t.Fatal("unknown field must be rejected")
	}
}

func TestEmailMatchingPrimary(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	r.Update(m.LocalID, "email", "PRIMARY@example.com")

	got, _ := r.Get(m.LocalID)
	if got.EmailError != "This email is already used by the primary member" {
		t.Errorf("email error = %q", got.EmailError)
	}
}

func TestEmailDuplicateBetweenMembers(t *testing.T) {
	r := New(testUser())
	first := r.Add()
	second := r.Add()

	r.Update(first.LocalID, "email", "guest@example.com")
	r.Update(second.LocalID, "email", "guest@example.com")

	got, _ := r.Get(second.LocalID)
	if got.EmailError != "This email is already used by another member" {
		t.Errorf("email error = %q", got.EmailError)
	}
}

func TestEmailInvalidFormat(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	r.Update(m.LocalID, "email", "not-an-email")

	got, _ := r.Get(m.LocalID)
	if got.EmailError != "Invalid email format" {
		t.Errorf("email error = %q", got.EmailError)
	}
}

func TestEmailErrorClearsOnFix(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	r.Update(m.LocalID, "email", "bad")
	r.Update(m.LocalID, "email", "good@example.com")

	got, _ := r.Get(m.LocalID)
	if got.EmailError != "" {
		t.Errorf("expected cleared email error, got %q", got.EmailError)
	}
}

func TestEmptyEmailIsNotAnError(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	r.Update(m.LocalID, "email", "bad")
	r.Update(m.LocalID, "email", "")

	got, _ := r.Get(m.LocalID)
	if got.EmailError != "" {
		t.Errorf("clearing the email should clear the error, got %q", got.EmailError)
	}
}

func TestSetVerifiedRequiresValidAadhaar(t *testing.T) {
	r := New(testUser())
	m := r.Add()

	if r.SetVerified(m.LocalID) {
		t.Fatal("verification must be refused without a 12-digit aadhaar")
	}

	r.Update(m.LocalID, "aadhaar", "12345")
	if r.SetVerified(m.LocalID) {
		t.Fatal("verification must be refused for a short aadhaar")
	}

	r.Update(m.LocalID, "aadhaar", "123456789012")
	if !r.SetVerified(m.LocalID) {
		t.Fatal("verification should succeed with a well-formed aadhaar")
	}
	if got, _ := r.Get(m.LocalID); !got.IsVerified {
		t.Error("member not marked verified")
	}
}

func TestResetBumpsEpochAndReseeds(t *testing.T) {
	r := New(testUser())
	r.Add()
	r.Add()
	before := r.Epoch()

	r.Reset(testUser())

	if r.Epoch() != before+1 {
		t.Errorf("epoch = %d, want %d", r.Epoch(), before+1)
	}
	if r.Len() != 1 {
		t.Errorf("expected reseeded single-member roster, got %d", r.Len())
	}
	if r.Members()[0].Name != "Asha Patel" {
		t.Errorf("primary not reseeded from user record")
	}
}

func TestMembersReturnsCopy(t *testing.T) {
	r := New(testUser())

	snapshot := r.Members()
	snapshot[0].Name = "mutated"

	if r.Members()[0].Name == "mutated" {
		t.Fatal("Members must return an isolated copy")
	}
}
