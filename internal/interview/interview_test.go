package interview

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit-dev/forge/internal/gapanalysis"
	"github.com/forgekit-dev/forge/internal/graphmodel"
)

type fakeProvider struct {
	name      string
	answers   map[string]string
	failFor   map[string]error
	questions []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Ask(_ context.Context, _, question string) (string, error) {
	f.questions = append(f.questions, question)
	for needle, err := range f.failFor {
		if contains(question, needle) {
			return "", err
		}
	}
	for needle, answer := range f.answers {
		if contains(question, needle) {
			return answer, nil
		}
	}
	return "default answer", nil
}

func contains(haystack, needle string) bool {
	return len(needle) > 0 && (haystack == needle || (len(haystack) >= len(needle) &&
		indexOf(haystack, needle) >= 0))
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func buildNode(t *testing.T, kind graphmodel.NodeKind, namespace, name string) graphmodel.Node {
	t.Helper()
	n, err := graphmodel.NewNodeBuilder(kind, namespace, name).Build()
	require.NoError(t, err)
	return n
}

func TestRun_AttachesAnswerAsBusinessContextNote(t *testing.T) {
	g := graphmodel.NewGraph()
	svc := buildNode(t, graphmodel.KindService, "checkout", "api")
	require.NoError(t, g.AddNode(svc))

	provider := &fakeProvider{name: "fake", answers: map[string]string{"checkout:api": "owned by payments"}}

	result, err := Run(context.Background(), g, Config{Provider: provider, TopN: 5})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "owned by payments", result.Outcomes[0].Answer)

	node, ok := g.GetNode(svc.Id)
	require.True(t, ok)
	require.NotNil(t, node.BusinessContext)
	require.Len(t, node.BusinessContext.Notes, 1)
	assert.Contains(t, node.BusinessContext.Notes[0], "owned by payments")
}

func TestRun_CapsAtTopN(t *testing.T) {
	g := graphmodel.NewGraph()
	for i := 0; i < 10; i++ {
		require.NoError(t, g.AddNode(buildNode(t, graphmodel.KindService, "ns", fmt.Sprintf("svc%d", i))))
	}

	provider := &fakeProvider{name: "fake"}
	result, err := Run(context.Background(), g, Config{Provider: provider, TopN: 3})
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 3)
}

func TestRun_OneProviderFailureDoesNotAbortTheRest(t *testing.T) {
	g := graphmodel.NewGraph()
	failing := buildNode(t, graphmodel.KindService, "ns", "failing")
	ok2 := buildNode(t, graphmodel.KindService, "ns", "ok")
	require.NoError(t, g.AddNode(failing))
	require.NoError(t, g.AddNode(ok2))

	provider := &fakeProvider{
		name:    "fake",
		failFor: map[string]error{"ns:failing": errors.New("boom")},
	}

	result, err := Run(context.Background(), g, Config{Provider: provider})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	var sawFailure, sawSuccess bool
	for _, o := range result.Outcomes {
		if o.Err != nil {
			sawFailure = true
		} else {
			sawSuccess = true
		}
	}
	assert.True(t, sawFailure)
	assert.True(t, sawSuccess)
}

func TestRun_NoProviderErrors(t *testing.T) {
	g := graphmodel.NewGraph()
	_, err := Run(context.Background(), g, Config{})
	assert.Error(t, err)
}

func TestQuestionFor_NamesEveryContribution(t *testing.T) {
	g := graphmodel.NewGraph()
	svc := buildNode(t, graphmodel.KindService, "ns", "svc")
	require.NoError(t, g.AddNode(svc))

	scores := gapanalysis.Analyze(g)
	require.NotEmpty(t, scores)

	q := questionFor(scores[0])
	assert.Contains(t, q, "purpose")
	assert.Contains(t, q, "own")
}
