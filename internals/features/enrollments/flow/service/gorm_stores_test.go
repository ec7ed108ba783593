package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	flowModel "kartacademy_backend/internals/features/enrollments/flow/model"
)

func TestDecodeSnapshot(t *testing.T) {
	courseID := uuid.New()
	parentID := uuid.New()
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	goodState := FlowState{
		FlowKey:   "flow-abc",
		Step:      StepPayment,
		CourseID:  courseID,
		ParentID:  &parentID,
		StartedAt: started,
	}
	goodPayload, err := json.Marshal(goodState)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mismatched := goodState
	mismatched.FlowKey = "some-other-flow"
	mismatchedPayload, _ := json.Marshal(mismatched)

	unknownStep := goodState
	unknownStep.Step = "teleport"
	unknownStepPayload, _ := json.Marshal(unknownStep)

	cases := []struct {
		name    string
		payload []byte
		wantOK  bool
	}{
		{"valid payload", goodPayload, true},
		{"bad json", []byte(`{"flow_key": "flow-abc", "step":`), false},
		{"flow key mismatch", mismatchedPayload, false},
		{"unknown step", unknownStepPayload, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := &flowModel.FlowSnapshot{
				SnapshotFlowKey:  "flow-abc",
				SnapshotCourseID: courseID,
				SnapshotPayload:  tc.payload,
				CreatedAt:        started,
			}

			st, ok := decodeSnapshot(row)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}

			if tc.wantOK {
				if st.Step != StepPayment || st.ParentID == nil || *st.ParentID != parentID {
					t.Fatalf("decoded state = %+v", st)
				}
				return
			}

			// corrupt rows restart the same course at the auth step
			if st.Step != StepAuth {
				t.Fatalf("step = %s, want %s", st.Step, StepAuth)
			}
			if st.FlowKey != "flow-abc" {
				t.Fatalf("flow key = %s", st.FlowKey)
			}
			if st.CourseID != courseID {
				t.Fatalf("course id = %s", st.CourseID)
			}
			if st.ParentID != nil || st.EnrollmentID != nil {
				t.Fatal("restart state must not carry ids from the corrupt payload")
			}
			if !st.StartedAt.Equal(started) {
				t.Fatalf("started at = %v", st.StartedAt)
			}
		})
	}
}
