package graph

import (
	"crypto/sha256"
	"fmt"

	"kbuilder/pkg/model"
)

// ComputePlanHash fingerprints a task together with the stages that will run
// on it, identifying one planned invocation
func ComputePlanHash(task model.CompilationTask, stages []Stage) string {
	h := sha256.New()
	h.Write([]byte(task.Hash()))
	for _, stage := range stages {
		h.Write([]byte{0})
		h.Write([]byte(stage.Name()))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
