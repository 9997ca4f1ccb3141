package model

// EditKind identifies which entity kind an editing form is open for.
type EditKind int

const (
	EditIdle EditKind = iota
	EditFactor
	EditSubfactor
	EditQuestion
	EditAnswer
)

func (k EditKind) String() string {
	switch k {
	case EditIdle:
		return "idle"
	case EditFactor:
		return "factor"
	case EditSubfactor:
		return "subfactor"
	case EditQuestion:
		return "question"
	case EditAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// EditState is the single "currently edited entity" value for an authoring
// session. At most one edit is active at a time; that exclusivity is
// structural because the session holds exactly one EditState.
type EditState struct {
	kind EditKind
	id   string
}

// Idle is the no-edit-active state.
func Idle() EditState { return EditState{} }

// EditingFactor marks a factor form as the active edit.
func EditingFactor(id string) EditState { return EditState{kind: EditFactor, id: id} }

// EditingSubfactor marks a subfactor form as the active edit.
func EditingSubfactor(id string) EditState { return EditState{kind: EditSubfactor, id: id} }

// EditingQuestion marks a question form as the active edit.
func EditingQuestion(id string) EditState { return EditState{kind: EditQuestion, id: id} }

// EditingAnswer marks an answer form as the active edit.
func EditingAnswer(id string) EditState { return EditState{kind: EditAnswer, id: id} }

func (s EditState) Kind() EditKind { return s.kind }

// EntityID returns the id of the entity being edited, empty when idle.
func (s EditState) EntityID() string { return s.id }

func (s EditState) IsIdle() bool { return s.kind == EditIdle }
