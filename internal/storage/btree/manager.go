package btree

import (
	"encoding/binary"

	"github.com/auradb/aura/internal/aerr"
	"github.com/auradb/aura/internal/storage/page"
)

// rootPointerPageID mirrors pager.BTreeRootPointerPageID without importing
// the pager package, the same pattern index.go uses for its reserved page.
const rootPointerPageID uint32 = 1

// pagerLike is the subset of *pager.Pager the manager needs.
type pagerLike interface {
	AllocatePage() uint32
	WritePage(pg *page.Page) error
	ReadPage(id uint32) (*page.Page, error)
}

// Manager owns the on-disk B-tree: it knows the current root page id and
// performs search/insert against the backing pager, splitting full nodes
// preemptively on the way down rather than after the fact.
type Manager struct {
	pager  pagerLike
	rootID uint32
}

// Open loads the manager's root pointer from the reserved pointer page,
// creating an empty root leaf the first time the database is used.
func Open(p pagerLike) (*Manager, error) {
	ptrPage, err := p.ReadPage(rootPointerPageID)
	if err != nil {
		return nil, err
	}

	if ptrPage.UsedSpace == 4 {
		rootID := binary.LittleEndian.Uint32(ptrPage.Payload())
		return &Manager{pager: p, rootID: rootID}, nil
	}

	rootID := p.AllocatePage()
	root := NewLeaf(rootID)
	m := &Manager{pager: p, rootID: rootID}
	if err := m.writeNode(root); err != nil {
		return nil, err
	}
	if err := m.persistRootPointer(); err != nil {
		return nil, err
	}
	return m, nil
}

// RootID returns the page id of the tree's current root node.
func (m *Manager) RootID() uint32 {
	return m.rootID
}

func (m *Manager) persistRootPointer() error {
	pg := page.New(rootPointerPageID, page.KindIndex)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], m.rootID)
	if err := pg.SetPayload(buf[:]); err != nil {
		return err
	}
	return m.pager.WritePage(pg)
}

func (m *Manager) readNode(id uint32) (*Node, error) {
	pg, err := m.pager.ReadPage(id)
	if err != nil {
		return nil, err
	}
	return Decode(id, pg.Payload())
}

func (m *Manager) writeNode(n *Node) error {
	// Node pages reuse KindData: the on-disk format distinguishes a B-tree
	// node from a document page structurally (Decode), not by page kind.
	// KindIndex is reserved for the true index/superblock pages at 0/1.
	pg := page.New(n.ID, page.KindData)
	encoded := n.Encode()
	if err := pg.SetPayload(encoded); err != nil {
		return err
	}
	return m.pager.WritePage(pg)
}

// Search returns the document page id stored for key, or false if key is
// absent from the tree.
func (m *Manager) Search(key string) (uint32, bool, error) {
	node, err := m.readNode(m.rootID)
	if err != nil {
		return 0, false, err
	}
	for {
		if node.Kind == KindLeaf {
			i := node.insertionIndex(key)
			if i < len(node.Keys) && node.Keys[i] == key {
				return node.Values[i], true, nil
			}
			return 0, false, nil
		}
		childID := node.Children[node.childIndex(key)]
		node, err = m.readNode(childID)
		if err != nil {
			return 0, false, err
		}
	}
}

// Insert adds key -> documentPageID to the tree, splitting any full node
// encountered on the way down before descending into it. This preemptive
// strategy guarantees a node always has room for one more key/child by
// the time the insertion actually reaches it, so no second pass back up
// the tree is needed.
func (m *Manager) Insert(key string, documentPageID uint32) error {
	root, err := m.readNode(m.rootID)
	if err != nil {
		return err
	}

	if root.IsFull() {
		newRootID := m.pager.AllocatePage()
		newRoot := NewInternal(newRootID)
		newRoot.Children = []uint32{root.ID}
		root.Parent = newRootID
		if err := m.writeNode(root); err != nil {
			return err
		}
		if err := m.splitChild(newRoot, 0, root); err != nil {
			return err
		}
		if err := m.writeNode(newRoot); err != nil {
			return err
		}
		m.rootID = newRootID
		if err := m.persistRootPointer(); err != nil {
			return err
		}
		root = newRoot
	}

	return m.insertNonFull(root, key, documentPageID)
}

// insertNonFull inserts key into the subtree rooted at node, which the
// caller guarantees is not full. It preemptively splits any full child
// before recursing into it.
func (m *Manager) insertNonFull(node *Node, key string, documentPageID uint32) error {
	if node.Kind == KindLeaf {
		i := node.insertionIndex(key)
		if i < len(node.Keys) && node.Keys[i] == key {
			node.Values[i] = documentPageID // overwrite existing key
			return m.writeNode(node)
		}
		node.Keys = insertStringAt(node.Keys, i, key)
		node.Values = insertUint32At(node.Values, i, documentPageID)
		return m.writeNode(node)
	}

	i := node.childIndex(key)
	child, err := m.readNode(node.Children[i])
	if err != nil {
		return err
	}

	if child.IsFull() {
		if err := m.splitChild(node, i, child); err != nil {
			return err
		}
		// The separator promoted into node at i may now sort before or
		// after key; re-resolve which of the (possibly new) two children
		// key belongs under.
		if err := m.writeNode(node); err != nil {
			return err
		}
		i = node.childIndex(key)
		child, err = m.readNode(node.Children[i])
		if err != nil {
			return err
		}
	}

	return m.insertNonFull(child, key, documentPageID)
}

// splitChild splits the full node "child", which is parent.Children[idx],
// into two nodes, inserting a separator key into parent at position idx
// and writing a new sibling page. parent is mutated in place; the caller
// is responsible for persisting it.
func (m *Manager) splitChild(parent *Node, idx int, child *Node) error {
	mid := len(child.Keys) / 2
	siblingID := m.pager.AllocatePage()

	switch child.Kind {
	case KindLeaf:
		sibling := NewLeaf(siblingID)
		sibling.Parent = parent.ID
		sibling.Keys = append([]string(nil), child.Keys[mid:]...)
		sibling.Values = append([]uint32(nil), child.Values[mid:]...)

		separator := sibling.Keys[0]

		child.Keys = append([]string(nil), child.Keys[:mid]...)
		child.Values = append([]uint32(nil), child.Values[:mid]...)

		parent.Keys = insertStringAt(parent.Keys, idx, separator)
		parent.Children = insertUint32At(parent.Children, idx+1, siblingID)

		if err := m.writeNode(child); err != nil {
			return err
		}
		return m.writeNode(sibling)

	case KindInternal:
		separator := child.Keys[mid]

		sibling := NewInternal(siblingID)
		sibling.Parent = parent.ID
		sibling.Keys = append([]string(nil), child.Keys[mid+1:]...)
		sibling.Children = append([]uint32(nil), child.Children[mid+1:]...)

		child.Keys = append([]string(nil), child.Keys[:mid]...)
		child.Children = append([]uint32(nil), child.Children[:mid+1]...)

		if err := m.reparentChildren(sibling); err != nil {
			return err
		}

		parent.Keys = insertStringAt(parent.Keys, idx, separator)
		parent.Children = insertUint32At(parent.Children, idx+1, siblingID)

		if err := m.writeNode(child); err != nil {
			return err
		}
		return m.writeNode(sibling)

	default:
		return &aerr.Serialization{Reason: "cannot split node of unknown kind"}
	}
}

// reparentChildren rewrites the Parent pointer of every grandchild moved
// into sibling during an internal split.
func (m *Manager) reparentChildren(sibling *Node) error {
	for _, childID := range sibling.Children {
		grandchild, err := m.readNode(childID)
		if err != nil {
			return err
		}
		grandchild.Parent = sibling.ID
		if err := m.writeNode(grandchild); err != nil {
			return err
		}
	}
	return nil
}

func insertStringAt(s []string, i int, v string) []string {
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertUint32At(s []uint32, i int, v uint32) []uint32 {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
