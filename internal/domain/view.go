package domain

// View is the presentation state of one edit session.
type View struct {
	SessionID      string         `json:"sessionId"`
	Revision       uint64         `json:"revision"`
	Mode           Mode           `json:"mode"`
	Draft          Parameters     `json:"draft"`
	Committed      Parameters     `json:"committed"`
	CommitEnabled  bool           `json:"commitEnabled"`
	Locked         bool           `json:"locked"`
	LockMessage    string         `json:"lockMessage,omitempty"`
	RemoveBgStatus RemoveBgStatus `json:"removeBgStatus"`
	RemoveBgLabel  string         `json:"removeBgLabel"`
	PendingPreview bool           `json:"pendingPreview"`
	CanUndo        bool           `json:"canUndo"`
	CanRedo        bool           `json:"canRedo"`
	UndoDepth      int            `json:"undoDepth"`
	RedoDepth      int            `json:"redoDepth"`
	Crop           CropRect       `json:"crop"`
	CropChoice     CropChoice     `json:"cropChoice"`
	UnappliedDraft bool           `json:"unappliedDraft"`
	ImageAvailable bool           `json:"imageAvailable"`
}

// PendingChanges lists work that a save would leave out.
type PendingChanges struct {
	UnappliedDraft    bool `json:"unappliedDraft"`
	UnappliedRemoveBg bool `json:"unappliedRemoveBg"`
}

// Any reports whether anything is pending.
func (p PendingChanges) Any() bool {
	return p.UnappliedDraft || p.UnappliedRemoveBg
}
