package bloodtype

// ABO/Rh compatibility table, keyed by recipient type.
// O- donates to everyone, AB+ receives from everyone.
var compatibleDonors = map[string][]string{
	"A+":  {"A+", "A-", "O+", "O-"},
	"A-":  {"A-", "O-"},
	"B+":  {"B+", "B-", "O+", "O-"},
	"B-":  {"B-", "O-"},
	"AB+": {"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"},
	"AB-": {"A-", "B-", "AB-", "O-"},
	"O+":  {"O+", "O-"},
	"O-":  {"O-"},
}

// AllTypes lists the 8 ABO/Rh blood types.
var AllTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// IsValid reports whether t is one of the 8 ABO/Rh types.
func IsValid(t string) bool {
	_, ok := compatibleDonors[t]
	return ok
}

// CanDonate reports whether blood of donorType can safely be given to a
// patient of recipientType. Unrecognized types are never compatible.
func CanDonate(donorType, recipientType string) bool {
	donors, ok := compatibleDonors[recipientType]
	if !ok {
		return false
	}
	for _, d := range donors {
		if d == donorType {
			return true
		}
	}
	return false
}

// CompatibleDonorTypes returns the donor types that may give to recipientType.
// Returns nil for an unrecognized type.
func CompatibleDonorTypes(recipientType string) []string {
	donors, ok := compatibleDonors[recipientType]
	if !ok {
		return nil
	}
	out := make([]string, len(donors))
	copy(out, donors)
	return out
}
