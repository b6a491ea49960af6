package keychain

import (
	"fmt"
	"strings"
)

// Accessibility is the protection class of a stored secret: when, relative
// to the device lock state, the secret may be read.
type Accessibility int

const (
	AfterFirstUnlock Accessibility = iota + 1
	AfterFirstUnlockThisDeviceOnly
	WhenPasscodeSetThisDeviceOnly
	WhenUnlocked
	WhenUnlockedThisDeviceOnly
)

// DefaultAccessibility applies to writes that do not request a class.
const DefaultAccessibility = WhenUnlocked

// Token is the backend attribute value for an accessibility class. The values
// are those of the Security framework's kSecAttrAccessible constants.
type Token string

var accessibilityTokens = map[Accessibility]Token{
	AfterFirstUnlock:               "ck",
	AfterFirstUnlockThisDeviceOnly: "cku",
	WhenPasscodeSetThisDeviceOnly:  "akpu",
	WhenUnlocked:                   "ak",
	WhenUnlockedThisDeviceOnly:     "aku",
}

var accessibilityNames = map[Accessibility]string{
	AfterFirstUnlock:               "after-first-unlock",
	AfterFirstUnlockThisDeviceOnly: "after-first-unlock-this-device-only",
	WhenPasscodeSetThisDeviceOnly:  "when-passcode-set-this-device-only",
	WhenUnlocked:                   "when-unlocked",
	WhenUnlockedThisDeviceOnly:     "when-unlocked-this-device-only",
}

// Accessibilities lists every class in declaration order.
func Accessibilities() []Accessibility {
	return []Accessibility{
		AfterFirstUnlock,
		AfterFirstUnlockThisDeviceOnly,
		WhenPasscodeSetThisDeviceOnly,
		WhenUnlocked,
		WhenUnlockedThisDeviceOnly,
	}
}

// TokenFor returns the backend token for a. It returns "" only for values
// outside the declared constants.
func TokenFor(a Accessibility) Token {
	return accessibilityTokens[a]
}

// AccessibilityFor maps a backend token back to its class. Tokens from
// protection schemes this package does not model report false.
func AccessibilityFor(t Token) (Accessibility, bool) {
	for a, tok := range accessibilityTokens {
		if tok == t {
			return a, true
		}
	}
	return 0, false
}

// ParseAccessibility accepts the kebab-case name of a class, as used in
// configuration files and CLI flags.
func ParseAccessibility(name string) (Accessibility, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, a := range Accessibilities() {
		if accessibilityNames[a] == n {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown accessibility %q", name)
}

func (a Accessibility) String() string {
	if n, ok := accessibilityNames[a]; ok {
		return n
	}
	return fmt.Sprintf("accessibility(%d)", int(a))
}
