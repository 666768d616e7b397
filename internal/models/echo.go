package models

// EchoSet tracks labels the chat platform will echo back after a button tap.
// Labels are grouped by the prompt that offered them; each label is consumed at most once.
// A group is settled once its selection has been handled; unsettled groups belong to
// prompts the user has not answered and are dropped when the conversation moves on.
type EchoSet struct {
	groups map[string]*echoGroup
}

type echoGroup struct {
	labels  []string
	settled bool
}

// Offer registers the labels of a prompt, replacing any earlier offer for the group.
// Prompts still waiting for an answer are superseded by the new one.
func (e *EchoSet) Offer(group string, labels []string) {
	e.DropUnsettled()
	if len(labels) == 0 {
		e.Drop(group)
		return
	}
	if e.groups == nil {
		e.groups = make(map[string]*echoGroup)
	}
	e.groups[group] = &echoGroup{labels: append([]string(nil), labels...)}
}

// Settle keeps only the chosen label of a group once its selection has been handled.
// If the chosen echo already arrived, the whole group is dropped.
func (e *EchoSet) Settle(group, chosen string) {
	g, ok := e.groups[group]
	if !ok {
		return
	}
	for _, label := range g.labels {
		if label == chosen {
			g.labels = []string{chosen}
			g.settled = true
			return
		}
	}
	e.Drop(group)
}

// Drop forgets a group.
func (e *EchoSet) Drop(group string) {
	delete(e.groups, group)
}

// DropUnsettled forgets every group whose selection was never made.
func (e *EchoSet) DropUnsettled() {
	for name, g := range e.groups {
		if !g.settled {
			delete(e.groups, name)
		}
	}
}

// Consume removes one pending occurrence of text and reports whether there was one.
func (e *EchoSet) Consume(text string) bool {
	for name, g := range e.groups {
		for i, label := range g.labels {
			if label != text {
				continue
			}
			g.labels = append(g.labels[:i:i], g.labels[i+1:]...)
			if len(g.labels) == 0 {
				delete(e.groups, name)
			}
			return true
		}
	}
	return false
}

// Pending returns the number of labels still expected.
func (e *EchoSet) Pending() int {
	n := 0
	for _, g := range e.groups {
		n += len(g.labels)
	}
	return n
}
