package session

// Entry is one recorded answer.
type Entry struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

// Ledger holds at most one answer per question. Values are not validated
// here; scoring decides what they are worth. Not safe for concurrent use on
// its own, the Controller guards it.
type Ledger struct {
	entries []Entry
	index   map[string]int
}

func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Set replaces the answer for questionID in place, or appends it.
func (l *Ledger) Set(questionID, value string) {
	if i, ok := l.index[questionID]; ok {
		l.entries[i].Value = value
		return
	}
	l.index[questionID] = len(l.entries)
	l.entries = append(l.entries, Entry{QuestionID: questionID, Value: value})
}

func (l *Ledger) Get(questionID string) (string, bool) {
	i, ok := l.index[questionID]
	if !ok {
		return "", false
	}
	return l.entries[i].Value, true
}

func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns a copy in insertion order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Answers() map[string]string {
	out := make(map[string]string, len(l.entries))
	for _, e := range l.entries {
		out[e.QuestionID] = e.Value
	}
	return out
}
