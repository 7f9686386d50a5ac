package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractDocument builds a small project: one scene with a group holding an
// element, and a rule whose event points at that element.
func contractDocument() *domain.Record {
	doc := domain.NewRecord(1, domain.TypeProject)
	doc.Set(domain.PropName, "contract")
	doc.Set(domain.PropVersion, 1)

	scene := domain.NewRecord(10, domain.TypeScene)
	scene.Set(domain.PropName, "main")
	addChild(doc, scene)

	group := domain.NewRecord(100, domain.TypeElement)
	group.Set(domain.PropElementType, "group")
	addChild(scene, group)

	leaf := domain.NewRecord(101, domain.TypeElement)
	leaf.Set(domain.PropElementType, "light")
	leaf.Set("light_type", "ambient")
	addChild(group, leaf)

	rule := domain.NewRecord(200, domain.TypeRule)
	addChild(scene, rule)

	we := domain.NewRecord(201, domain.TypeWhenEvent)
	we.Set(domain.PropCoID, 101)
	we.Set(domain.PropCoType, "element")
	we.Set(domain.PropEvent, "on_click")
	addChild(rule, we)
	return doc
}

func addChild(parent, child *domain.Record) {
	c := parent.EnsureCollection(child.Type)
	c.Map[child.ID] = child
	c.Order = append(c.Order, child.ID)
}

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument()
		require.NoError(t, store.Save(ctx, docID, doc), "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		require.NoError(t, loaded.Validate())
		assert.Equal(t, domain.TypeProject, loaded.Type)
		assert.Equal(t, "contract", loaded.String(domain.PropName))

		// Serializing stores turn ints into float64; Int reads either.
		v, ok := loaded.Int(domain.PropVersion)
		assert.True(t, ok)
		assert.Equal(t, int64(1), v)

		scene := loaded.Collection(domain.TypeScene).Map[10]
		require.NotNil(t, scene)
		assert.Equal(t, []int64{100}, scene.Collection(domain.TypeElement).Order)
		group := scene.Collection(domain.TypeElement).Map[100]
		require.NotNil(t, group)
		assert.Equal(t, []int64{101}, group.Collection(domain.TypeElement).Order)

		rule := scene.Collection(domain.TypeRule).Map[200]
		require.NotNil(t, rule)
		we := rule.Collection(domain.TypeWhenEvent).Map[201]
		require.NotNil(t, we)
		coID, ok := we.Int(domain.PropCoID)
		assert.True(t, ok)
		assert.Equal(t, int64(101), coID)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		first, err := store.Load(ctx, docID)
		require.NoError(t, err)
		first.Set(domain.PropName, "mutated")
		first.Collection(domain.TypeScene).Map[10].Set(domain.PropName, "mutated")

		second, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, "contract", second.String(domain.PropName))
		assert.Equal(t, "main", second.Collection(domain.TypeScene).Map[10].String(domain.PropName))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, docID, contractDocument()))

		require.NoError(t, store.Delete(ctx, docID), "Delete should not return error")

		_, err := store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, docID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractDocument()))
		require.NoError(t, store.Save(ctx, id2, contractDocument()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		docs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, docs, id1)
		assert.Contains(t, docs, id2)
	})
}
