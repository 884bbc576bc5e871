package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariel-frischer/taglog/internal/build"
)

func TestPrintPlainVersion(t *testing.T) {
	var buf bytes.Buffer
	printPlainVersion(&buf)

	out := buf.String()
	assert.Contains(t, out, "taglog "+build.Version+"\n")
	assert.Contains(t, out, "commit: "+build.Commit+"\n")
	assert.Contains(t, out, "go: "+runtime.Version()+"\n")
	assert.Contains(t, out, "platform: "+build.Platform()+"\n")
}

func TestPrintPrettyVersion(t *testing.T) {
	var buf bytes.Buffer
	printPrettyVersion(&buf)

	out := buf.String()
	assert.Contains(t, out, build.Version)
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, "┌")
}

func TestVersionCmd_PlainFlag(t *testing.T) {
	f := versionCmd.Flags().Lookup("plain")
	if assert.NotNil(t, f) {
		assert.Equal(t, "false", f.DefValue)
	}
}
