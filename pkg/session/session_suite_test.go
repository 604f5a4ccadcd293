package session_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSessionStores(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Store Suite")
}
