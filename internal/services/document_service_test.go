package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftsign/draftsign-api/internal/jobs"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/storage"
)

type mockTemplateRepo struct {
	repository.TemplateRepository
	mockFindByIDWithSections func(ctx context.Context, id uint) (*models.Template, error)
}

func (m *mockTemplateRepo) FindByIDWithSections(ctx context.Context, id uint) (*models.Template, error) {
	return m.mockFindByIDWithSections(ctx, id)
}

type mockClientRepo struct {
	repository.ClientRepository
	mockFindByID func(ctx context.Context, id uint) (*models.Client, error)
}

func (m *mockClientRepo) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	return m.mockFindByID(ctx, id)
}

type docFixture struct {
	docRepo      *mockDocRepo
	templateRepo *mockTemplateRepo
	clientRepo   *mockClientRepo
	eventRepo    *mockEventRepo
	service      *DocumentService
}

func newDocFixture(t *testing.T) *docFixture {
	t.Helper()
	cfg := testConfig()

	docRepo := &mockDocRepo{}
	templateRepo := &mockTemplateRepo{}
	clientRepo := &mockClientRepo{}
	eventRepo := &mockEventRepo{}

	artifacts, err := storage.NewLocalArtifacts(t.TempDir())
	require.NoError(t, err)

	worker := jobs.NewWorker(1)
	render := NewRenderService(docRepo, artifacts, cfg)
	email := NewEmailService(cfg)
	effects := NewEffects(worker, render, email, eventRepo, cfg)
	access := NewAccessService(docRepo, nil, cfg)

	return &docFixture{
		docRepo:      docRepo,
		templateRepo: templateRepo,
		clientRepo:   clientRepo,
		eventRepo:    eventRepo,
		service:      NewDocumentService(docRepo, templateRepo, clientRepo, eventRepo, access, effects, cfg),
	}
}

func draftContract(id uint) *models.Document {
	return &models.Document{
		ID:       id,
		TenantID: 1,
		Type:     models.DocTypeContract,
		Status:   models.StatusDraft,
		Title:    "Consulting Agreement",
		Client:   models.Client{ID: 2, TenantID: 1, FullName: "Jane Doe", Email: "jane@example.com"},
		Tenant:   models.Tenant{ID: 1, CompanyName: "Acme Ltd"},
		Sections: []models.Section{
			{
				ID:       "s1",
				Type:     models.SectionHeading,
				Position: 0,
				Content:  models.SectionContent{Heading: &models.HeadingContent{Text: "Agreement"}},
			},
			{
				ID:       "s2",
				Type:     models.SectionParagraph,
				Position: 1,
				Content:  models.SectionContent{Paragraph: &models.ParagraphContent{Markup: "Between {{company.name}} and {{client.full_name}}."}},
			},
		},
	}
}

func TestDocumentService_CreateFromTemplate(t *testing.T) {
	t.Run("inactive template", func(t *testing.T) {
		f := newDocFixture(t)
		f.templateRepo.mockFindByIDWithSections = func(ctx context.Context, id uint) (*models.Template, error) {
			return &models.Template{ID: id, TenantID: 1, Active: false}, nil
		}
		_, err := f.service.CreateFromTemplate(context.Background(), CreateDocumentInput{TenantID: 1, TemplateID: 4, ClientID: 2})
		assert.ErrorIs(t, err, ErrTemplateInactive)
	})

	t.Run("cross-tenant template hidden", func(t *testing.T) {
		f := newDocFixture(t)
		f.templateRepo.mockFindByIDWithSections = func(ctx context.Context, id uint) (*models.Template, error) {
			return &models.Template{ID: id, TenantID: 99, Active: true}, nil
		}
		_, err := f.service.CreateFromTemplate(context.Background(), CreateDocumentInput{TenantID: 1, TemplateID: 4, ClientID: 2})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cross-tenant client hidden", func(t *testing.T) {
		f := newDocFixture(t)
		f.templateRepo.mockFindByIDWithSections = func(ctx context.Context, id uint) (*models.Template, error) {
			return &models.Template{ID: id, TenantID: 1, Active: true}, nil
		}
		f.clientRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Client, error) {
			return &models.Client{ID: id, TenantID: 99}, nil
		}
		_, err := f.service.CreateFromTemplate(context.Background(), CreateDocumentInput{TenantID: 1, TemplateID: 4, ClientID: 2})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invoice clone gets fresh sections and totals", func(t *testing.T) {
		f := newDocFixture(t)
		f.templateRepo.mockFindByIDWithSections = func(ctx context.Context, id uint) (*models.Template, error) {
			return &models.Template{
				ID: id, TenantID: 1, Active: true,
				Name:    "Monthly Retainer",
				DocType: models.DocTypeInvoice,
				Sections: []models.Section{
					{ID: "tpl-1", Type: models.SectionHeading, Position: 0, Content: models.SectionContent{Heading: &models.HeadingContent{Text: "Invoice"}}},
				},
			}, nil
		}
		f.clientRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Client, error) {
			return &models.Client{ID: id, TenantID: 1, FullName: "Jane Doe", Email: "jane@example.com"}, nil
		}
		f.docRepo.mockCreate = func(ctx context.Context, doc *models.Document) error {
			doc.ID = 11
			return nil
		}

		var clonedSections []models.Section
		f.docRepo.mockReplaceSections = func(ctx context.Context, docID uint, secs []models.Section) error {
			clonedSections = secs
			return nil
		}
		var savedItems []models.LineItem
		f.docRepo.mockReplaceLineItems = func(ctx context.Context, docID uint, items []models.LineItem) error {
			savedItems = items
			return nil
		}
		var updatedDoc *models.Document
		f.docRepo.mockUpdate = func(ctx context.Context, doc *models.Document) error {
			updatedDoc = doc
			return nil
		}
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return &models.Document{ID: id, Status: models.StatusDraft}, nil
		}

		doc, err := f.service.CreateFromTemplate(context.Background(), CreateDocumentInput{
			TenantID:   1,
			TemplateID: 4,
			ClientID:   2,
			TaxRate:    10,
			LineItems:  []models.LineItem{{Description: "Retainer", Quantity: 1, UnitPrice: 1000}},
		})
		require.NoError(t, err)
		assert.Equal(t, uint(11), doc.ID)

		// The clone owns its sections: new ids, bound to the document.
		require.Len(t, clonedSections, 1)
		assert.NotEqual(t, "tpl-1", clonedSections[0].ID)
		require.NotNil(t, clonedSections[0].DocumentID)
		assert.Equal(t, uint(11), *clonedSections[0].DocumentID)

		require.Len(t, savedItems, 1)
		assert.Equal(t, uint(11), savedItems[0].DocumentID)

		require.NotNil(t, updatedDoc)
		assert.Equal(t, 1100.0, updatedDoc.Total)
		assert.Equal(t, 1100.0, updatedDoc.AmountDue)

		events := f.eventRepo.events()
		require.Len(t, events, 1)
		assert.Equal(t, models.EventCreated, events[0].EventType)
		assert.Equal(t, models.StatusDraft, events[0].ToStatus)
	})

	t.Run("empty title falls back to template name", func(t *testing.T) {
		f := newDocFixture(t)
		f.templateRepo.mockFindByIDWithSections = func(ctx context.Context, id uint) (*models.Template, error) {
			return &models.Template{ID: id, TenantID: 1, Active: true, Name: "NDA", DocType: models.DocTypeContract}, nil
		}
		f.clientRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Client, error) {
			return &models.Client{ID: id, TenantID: 1}, nil
		}
		var created *models.Document
		f.docRepo.mockCreate = func(ctx context.Context, doc *models.Document) error {
			created = doc
			doc.ID = 12
			return nil
		}
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return &models.Document{ID: id}, nil
		}

		_, err := f.service.CreateFromTemplate(context.Background(), CreateDocumentInput{TenantID: 1, TemplateID: 4, ClientID: 2, Title: "  "})
		require.NoError(t, err)
		assert.Equal(t, "NDA", created.Title)
	})
}

func TestDocumentService_UpdateDraft(t *testing.T) {
	t.Run("locked after send", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return &models.Document{ID: id, Status: models.StatusSent}, nil
		}
		title := "New title"
		_, err := f.service.UpdateDraft(context.Background(), 1, DraftPatch{Title: &title})
		assert.ErrorIs(t, err, ErrEditLocked)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return draftContract(id), nil
		}
		blank := "   "
		_, err := f.service.UpdateDraft(context.Background(), 1, DraftPatch{Title: &blank})
		assert.Error(t, err)
	})

	t.Run("rate change recomputes totals", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return &models.Document{
				ID:        id,
				Type:      models.DocTypeInvoice,
				Status:    models.StatusDraft,
				LineItems: []models.LineItem{{Description: "Work", Quantity: 2, UnitPrice: 100}},
			}, nil
		}
		taxRate := 20.0
		doc, err := f.service.UpdateDraft(context.Background(), 1, DraftPatch{TaxRate: &taxRate})
		require.NoError(t, err)
		assert.Equal(t, 200.0, doc.Subtotal)
		assert.Equal(t, 240.0, doc.Total)
		assert.Equal(t, 240.0, doc.AmountDue)
	})
}

func TestDocumentService_UpdateLineItems(t *testing.T) {
	f := newDocFixture(t)

	t.Run("contracts carry no line items", func(t *testing.T) {
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return draftContract(id), nil
		}
		_, err := f.service.UpdateLineItems(context.Background(), 1, []models.LineItem{{Description: "x", Quantity: 1, UnitPrice: 1}})
		assert.Error(t, err)
	})

	t.Run("invalid items rejected", func(t *testing.T) {
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return &models.Document{ID: id, Type: models.DocTypeInvoice, Status: models.StatusDraft}, nil
		}
		_, err := f.service.UpdateLineItems(context.Background(), 1, []models.LineItem{{Description: "", Quantity: 1, UnitPrice: 1}})
		assert.Error(t, err)
		_, err = f.service.UpdateLineItems(context.Background(), 1, []models.LineItem{{Description: "x", Quantity: 0, UnitPrice: 1}})
		assert.Error(t, err)
	})

	t.Run("replace renumbers and recalculates", func(t *testing.T) {
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return &models.Document{ID: id, Type: models.DocTypeInvoice, Status: models.StatusDraft, TaxRate: 10}, nil
		}
		var saved []models.LineItem
		f.docRepo.mockReplaceLineItems = func(ctx context.Context, docID uint, items []models.LineItem) error {
			saved = items
			return nil
		}
		doc, err := f.service.UpdateLineItems(context.Background(), 1, []models.LineItem{
			{Description: "Design", Quantity: 2, UnitPrice: 100},
			{Description: "Build", Quantity: 1, UnitPrice: 300},
		})
		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.Equal(t, 0, saved[0].Position)
		assert.Equal(t, 1, saved[1].Position)
		assert.Equal(t, 500.0, doc.Subtotal)
		assert.Equal(t, 550.0, doc.Total)
	})
}

func TestDocumentService_SectionEditingWithUndo(t *testing.T) {
	f := newDocFixture(t)

	// The in-memory document plays the role of the persisted row: ReplaceSections
	// writes back into it so the next load sees the edit.
	doc := draftContract(1)
	f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
		d := *doc
		d.Sections = append([]models.Section(nil), doc.Sections...)
		return &d, nil
	}
	f.docRepo.mockReplaceSections = func(ctx context.Context, docID uint, secs []models.Section) error {
		doc.Sections = secs
		return nil
	}

	ctx := context.Background()

	t.Run("nothing to undo on a fresh draft", func(t *testing.T) {
		_, err := f.service.Undo(ctx, 1)
		assert.ErrorIs(t, err, ErrNothingToUndo)
		_, err = f.service.Redo(ctx, 1)
		assert.ErrorIs(t, err, ErrNothingToRedo)
	})

	t.Run("insert then undo then redo", func(t *testing.T) {
		secs, err := f.service.InsertSection(ctx, 1, "s1", models.SectionTable)
		require.NoError(t, err)
		require.Len(t, secs, 3)
		assert.Equal(t, models.SectionTable, secs[1].Type)

		secs, err = f.service.Undo(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, secs, 2)

		secs, err = f.service.Redo(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, secs, 3)
	})

	t.Run("delete and move", func(t *testing.T) {
		secs, err := f.service.MoveSection(ctx, 1, "s2", 0)
		require.NoError(t, err)
		assert.Equal(t, "s2", secs[0].ID)

		secs, err = f.service.DeleteSection(ctx, 1, "s1")
		require.NoError(t, err)
		for _, s := range secs {
			assert.NotEqual(t, "s1", s.ID)
		}
	})

	t.Run("editing a sent document is locked", func(t *testing.T) {
		doc.Status = models.StatusSent
		defer func() { doc.Status = models.StatusDraft }()
		_, err := f.service.InsertSection(ctx, 1, "", models.SectionParagraph)
		assert.ErrorIs(t, err, ErrEditLocked)
	})
}

func TestDocumentService_Send(t *testing.T) {
	t.Run("only drafts can be sent", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			d := draftContract(id)
			d.Status = models.StatusSent
			return d, nil
		}
		_, err := f.service.Send(context.Background(), 1, nil)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("no sections", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			d := draftContract(id)
			d.Sections = nil
			return d, nil
		}
		_, err := f.service.Send(context.Background(), 1, nil)
		assert.ErrorIs(t, err, ErrNotSendable)
	})

	t.Run("client without email", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			d := draftContract(id)
			d.Client.Email = ""
			return d, nil
		}
		_, err := f.service.Send(context.Background(), 1, nil)
		assert.ErrorIs(t, err, ErrNotSendable)
	})

	t.Run("invoice needs line items and a positive total", func(t *testing.T) {
		f := newDocFixture(t)
		d := draftContract(1)
		d.Type = models.DocTypeInvoice
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			dd := *d
			return &dd, nil
		}
		_, err := f.service.Send(context.Background(), 1, nil)
		assert.ErrorIs(t, err, ErrNotSendable)

		d.LineItems = []models.LineItem{{Description: "Work", Quantity: 1, UnitPrice: 0}}
		d.Total = 0
		_, err = f.service.Send(context.Background(), 1, nil)
		assert.ErrorIs(t, err, ErrNotSendable)
	})

	t.Run("send issues a token and commits the transition", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return draftContract(id), nil
		}

		var gotUpdates map[string]interface{}
		var gotEvent *models.Event
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			gotUpdates = updates
			gotEvent = event
			return nil
		}

		actor := uint(3)
		doc, err := f.service.Send(context.Background(), 1, &actor)
		require.NoError(t, err)

		assert.Equal(t, models.StatusSent, doc.Status)
		assert.Equal(t, 1, doc.TokenEpoch)
		assert.NotNil(t, doc.SentAt)
		assert.NotNil(t, doc.TokenExpiresAt)

		assert.Equal(t, models.StatusSent, gotUpdates["status"])
		assert.NotEmpty(t, gotUpdates["token_digest"])
		assert.Equal(t, 1, gotUpdates["token_epoch"])
		assert.Contains(t, gotUpdates, "sent_at")
		assert.Contains(t, gotUpdates, "token_expires_at")

		require.NotNil(t, gotEvent)
		assert.Equal(t, models.EventSent, gotEvent.EventType)
		assert.Equal(t, models.StatusDraft, gotEvent.FromStatus)
		assert.Equal(t, models.StatusSent, gotEvent.ToStatus)
		require.NotNil(t, gotEvent.ActorID)
		assert.Equal(t, actor, *gotEvent.ActorID)
	})

	t.Run("stale transition surfaces", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			return draftContract(id), nil
		}
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			return repository.ErrStaleDocument
		}
		_, err := f.service.Send(context.Background(), 1, nil)
		assert.ErrorIs(t, err, repository.ErrStaleDocument)
	})
}

func TestDocumentService_MarkViewed(t *testing.T) {
	ctx := context.Background()

	t.Run("first view transitions to viewed", func(t *testing.T) {
		f := newDocFixture(t)
		doc := draftContract(1)
		doc.Status = models.StatusSent
		doc.TokenEpoch = 1

		var gotUpdates map[string]interface{}
		var gotEvent *models.Event
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			gotUpdates = updates
			gotEvent = event
			return nil
		}

		require.NoError(t, f.service.MarkViewed(ctx, doc, "203.0.113.9", "Mozilla/5.0"))
		assert.Equal(t, models.StatusViewed, doc.Status)
		assert.Equal(t, 1, doc.ViewedEpoch)

		assert.Equal(t, models.StatusViewed, gotUpdates["status"])
		assert.Equal(t, 1, gotUpdates["viewed_epoch"])
		require.NotNil(t, gotEvent)
		assert.Equal(t, models.EventViewed, gotEvent.EventType)
		assert.Equal(t, models.ActorCounterpart, gotEvent.ActorType)
		assert.Equal(t, "203.0.113.9", gotEvent.IPAddress)
	})

	t.Run("race with a concurrent open is benign", func(t *testing.T) {
		f := newDocFixture(t)
		doc := draftContract(1)
		doc.Status = models.StatusSent
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			return repository.ErrStaleDocument
		}
		assert.NoError(t, f.service.MarkViewed(ctx, doc, "", ""))
	})

	t.Run("reissued link records a fresh view without moving status", func(t *testing.T) {
		f := newDocFixture(t)
		doc := draftContract(1)
		doc.Status = models.StatusViewed
		doc.TokenEpoch = 2
		doc.ViewedEpoch = 1

		var gotUpdates map[string]interface{}
		var gotEvent *models.Event
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			gotUpdates = updates
			gotEvent = event
			return nil
		}

		require.NoError(t, f.service.MarkViewed(ctx, doc, "", ""))
		assert.Equal(t, models.StatusViewed, doc.Status)
		assert.Equal(t, 2, doc.ViewedEpoch)
		assert.NotContains(t, gotUpdates, "status")
		assert.Equal(t, models.StatusViewed, gotEvent.FromStatus)
		assert.Equal(t, models.StatusViewed, gotEvent.ToStatus)
	})

	t.Run("repeat view in the same epoch is a no-op", func(t *testing.T) {
		f := newDocFixture(t)
		doc := draftContract(1)
		doc.Status = models.StatusViewed
		doc.TokenEpoch = 1
		doc.ViewedEpoch = 1
		transitions := 0
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			transitions++
			return nil
		}
		require.NoError(t, f.service.MarkViewed(ctx, doc, "", ""))
		assert.Zero(t, transitions)
	})
}

func TestDocumentService_Sign(t *testing.T) {
	ctx := context.Background()

	viewed := func() *models.Document {
		d := draftContract(1)
		d.Status = models.StatusViewed
		return d
	}

	t.Run("requires clickwrap acceptance", func(t *testing.T) {
		f := newDocFixture(t)
		_, err := f.service.Sign(ctx, viewed(), "Jane Doe", false, "", "")
		assert.ErrorIs(t, err, ErrClickwrapRequired)
	})

	t.Run("requires a typed name", func(t *testing.T) {
		f := newDocFixture(t)
		_, err := f.service.Sign(ctx, viewed(), "   ", true, "", "")
		assert.ErrorIs(t, err, ErrSignerNameRequired)
	})

	t.Run("only viewed contracts can be signed", func(t *testing.T) {
		f := newDocFixture(t)
		d := draftContract(1)
		d.Status = models.StatusSent
		_, err := f.service.Sign(ctx, d, "Jane Doe", true, "", "")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("sign commits and stores the signer", func(t *testing.T) {
		f := newDocFixture(t)

		var gotUpdates map[string]interface{}
		var gotEvent *models.Event
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			gotUpdates = updates
			gotEvent = event
			return nil
		}

		doc, err := f.service.Sign(ctx, viewed(), "Jane Doe", true, "203.0.113.9", "Mozilla/5.0")
		require.NoError(t, err)
		assert.Equal(t, models.StatusSigned, doc.Status)
		require.NotNil(t, doc.SignerName)
		assert.Equal(t, "Jane Doe", *doc.SignerName)

		assert.Equal(t, models.StatusSigned, gotUpdates["status"])
		assert.Equal(t, "Jane Doe", gotUpdates["signer_name"])
		assert.Contains(t, gotUpdates, "signed_at")
		assert.Equal(t, models.EventSigned, gotEvent.EventType)
		assert.Contains(t, string(gotEvent.Payload), "Jane Doe")
	})
}

func TestDocumentService_Decline(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)

	t.Run("draft cannot be declined", func(t *testing.T) {
		_, err := f.service.Decline(ctx, draftContract(1), "", "", "")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("decline records the reason", func(t *testing.T) {
		d := draftContract(1)
		d.Status = models.StatusSent

		var gotEvent *models.Event
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			gotEvent = event
			return nil
		}

		doc, err := f.service.Decline(ctx, d, "pricing too high", "", "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeclined, doc.Status)
		assert.Contains(t, string(gotEvent.Payload), "pricing too high")
	})
}

func TestDocumentService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("terminal documents cannot be cancelled", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			d := draftContract(id)
			d.Status = models.StatusSigned
			return d, nil
		}
		_, err := f.service.Cancel(ctx, 1, nil)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("cancel kills the public link", func(t *testing.T) {
		f := newDocFixture(t)
		digest := "somedigest"
		f.docRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Document, error) {
			d := draftContract(id)
			d.Status = models.StatusSent
			d.TokenDigest = &digest
			return d, nil
		}

		var gotUpdates map[string]interface{}
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			gotUpdates = updates
			return nil
		}

		doc, err := f.service.Cancel(ctx, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, doc.Status)
		assert.Nil(t, doc.TokenDigest)

		require.Contains(t, gotUpdates, "token_digest")
		assert.Nil(t, gotUpdates["token_digest"])
	})
}

func TestDocumentService_Sweeps(t *testing.T) {
	ctx := context.Background()

	t.Run("expire stale contracts", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindExpirable = func(c context.Context, now time.Time) ([]models.Document, error) {
			return []models.Document{
				{ID: 1, Type: models.DocTypeContract, Status: models.StatusSent},
				{ID: 2, Type: models.DocTypeContract, Status: models.StatusViewed},
			}, nil
		}
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			assert.Equal(t, models.StatusExpired, updates["status"])
			assert.Equal(t, models.EventExpired, event.EventType)
			assert.Equal(t, models.ActorSystem, event.ActorType)
			return nil
		}

		n, err := f.service.ExpireStale(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("losers of concurrent transitions are skipped", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindExpirable = func(c context.Context, now time.Time) ([]models.Document, error) {
			return []models.Document{
				{ID: 1, Type: models.DocTypeContract, Status: models.StatusSent},
				{ID: 2, Type: models.DocTypeContract, Status: models.StatusSent},
			}, nil
		}
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			if docID == 1 {
				return repository.ErrStaleDocument
			}
			return nil
		}

		n, err := f.service.ExpireStale(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("mark overdue invoices", func(t *testing.T) {
		f := newDocFixture(t)
		f.docRepo.mockFindOverdue = func(c context.Context, now time.Time) ([]models.Document, error) {
			return []models.Document{
				{ID: 3, Type: models.DocTypeInvoice, Status: models.StatusPartiallyPaid},
			}, nil
		}
		var gotUpdates map[string]interface{}
		f.docRepo.mockTransition = func(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
			gotUpdates = updates
			return nil
		}

		n, err := f.service.MarkOverdueSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, models.StatusOverdue, gotUpdates["status"])
	})
}
