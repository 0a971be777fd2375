package flow

import (
	"testing"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionsProcessor(t *testing.T) {
	p := NewInstructionsProcessor()
	assert.Equal(t, "instructions", p.Name())

	rc, _ := newTestRunContext(nil, 0)
	rc.SetState("phase", "finalizing")

	var req model.Request
	err := p.ProcessRequest(rc, &req, &testAgent{name: "lead", instruction: "Current phase: {{ .phase }}"})
	require.NoError(t, err)
	assert.Equal(t, "Current phase: finalizing", req.Instructions)

	err = p.ProcessRequest(rc, &req, &testAgent{name: "lead", instruction: "{{ .phase"})
	assert.ErrorContains(t, err, "failed to render template")
}

func TestContentsProcessor_SkipsEmpty(t *testing.T) {
	p := NewContentsProcessor()
	assert.Equal(t, "contents", p.Name())

	rc, _ := newTestRunContext([]core.Content{
		core.NewTextContent(core.RoleUser, "a"),
		{Role: core.RoleAssistant},
		core.NewTextContent(core.RoleUser, "b"),
	}, 0)

	var req model.Request
	require.NoError(t, p.ProcessRequest(rc, &req, &testAgent{name: "lead"}))
	require.Len(t, req.Contents, 2)
	assert.Equal(t, "b", req.Contents[1].Text())
}
