package memory_test

import (
	"testing"

	"github.com/aretw0/tabi/pkg/adapters/memory"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports/tests"
)

func TestKnowledgeBase_Contract(t *testing.T) {
	kb := memory.NewKnowledgeBase(
		domain.Destination{ID: "osaka", Name: "Osaka", Body: "Dotonbori."},
		domain.Destination{ID: "kyoto", Name: "Kyoto", Body: "Temples."},
	)

	tests.KnowledgeBaseContractTest(t, kb, map[string]string{
		"kyoto": "Kyoto",
		"osaka": "Osaka",
	})
}
