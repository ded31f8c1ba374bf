package httpserver_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inmobiliaria/internal/adapters/auth"
	httpserver "inmobiliaria/internal/adapters/http_server"
	"inmobiliaria/internal/app"
	"inmobiliaria/internal/domain"
	"inmobiliaria/internal/storage/memory"
)

type testEnv struct {
	ts     *httptest.Server
	store  *memory.Store
	blobs  *memory.Blobs
	tokens *auth.Verifier
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	blobs := memory.NewBlobs()
	locks := &memory.Locker{}
	v, err := auth.NewVerifier("handler-test-secret")
	require.NoError(t, err)

	h := &httpserver.Handlers{
		Queries:   app.NewQueryService(store, nil, time.Minute),
		Catalog:   app.NewCatalogService(store, store, blobs, locks, nil),
		Images:    app.NewImageService(store, store, blobs, locks, nil),
		Inquiries: app.NewInquiryService(store, store),
		Agents:    app.NewAgentService(store, nil),
		Tokens:    v,
	}
	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(h)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: store, blobs: blobs, tokens: v}
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := e.tokens.Issue(domain.Principal{UserID: userID, Email: userID + "@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

// agent registers userID as an agent and returns a session token for it.
func (e *testEnv) agent(t *testing.T, userID string) string {
	t.Helper()
	e.store.Mu.Lock()
	e.store.Agents[userID] = domain.Agent{ID: userID, Name: "Agent " + userID, Email: userID + "@example.com"}
	e.store.Mu.Unlock()
	return e.token(t, userID, "")
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, raw
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, v any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return e.do(t, method, path, token, body, "application/json")
}

type envelope struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details"`
}

func decodeEnvelope(t *testing.T, raw []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return env
}

func multipartImage(t *testing.T, filename, contentType string, size int, isMain string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xAB}, size))
	require.NoError(t, err)
	if isMain != "" {
		require.NoError(t, mw.WriteField("is_main", isMain))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestListProperties_FiltersAndHidesSold(t *testing.T) {
	e := newEnv(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e.store.SeedProperty(uuid.NewString(), 120000, domain.TypeCasa, domain.StatusDisponible, base)
	cheap := e.store.SeedProperty(uuid.NewString(), 80000, domain.TypeCasa, domain.StatusDisponible, base.Add(time.Hour))
	e.store.SeedProperty(uuid.NewString(), 90000, domain.TypeCasa, domain.StatusVendida, base.Add(2*time.Hour))

	res, raw := e.do(t, http.MethodGet, "/api/properties?max_price=100000", "", nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var body struct {
		Properties []domain.Property `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Properties, 1)
	assert.Equal(t, cheap.ID, body.Properties[0].ID)
	assert.NotNil(t, body.Properties[0].Images, "images serialize as an array")
}

func TestListProperties_InvalidFiltersReportEveryField(t *testing.T) {
	e := newEnv(t)

	res, raw := e.do(t, http.MethodGet, "/api/properties?type=castle&min_price=abc&bedrooms=-1", "", nil, "")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	env := decodeEnvelope(t, raw)
	assert.NotEmpty(t, env.Error)
	assert.Contains(t, env.Details, "type")
	assert.Contains(t, env.Details, "min_price")
	assert.Contains(t, env.Details, "bedrooms")
}

func TestListProperties_StoreFailureIs500WithOperation(t *testing.T) {
	e := newEnv(t)
	e.store.FailWith = errors.New("connection refused")

	res, raw := e.do(t, http.MethodGet, "/api/properties", "", nil, "")
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	env := decodeEnvelope(t, raw)
	assert.Equal(t, "failed to search properties", env.Error)
	assert.NotContains(t, string(raw), "connection refused")
}

func TestGetProperty_NotFoundAndBadID(t *testing.T) {
	e := newEnv(t)

	res, raw := e.do(t, http.MethodGet, "/api/properties/"+uuid.NewString(), "", nil, "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "property not found", decodeEnvelope(t, raw).Error)

	res, raw = e.do(t, http.MethodGet, "/api/properties/not-a-uuid", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeEnvelope(t, raw).Details, "id")
}

func TestFeatured_ReturnsNewestAvailable(t *testing.T) {
	e := newEnv(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var newest domain.Property
	for i := 0; i < 8; i++ {
		newest = e.store.SeedProperty(uuid.NewString(), 100000, domain.TypeDepartamento, domain.StatusDisponible, base.Add(time.Duration(i)*time.Hour))
	}

	res, raw := e.do(t, http.MethodGet, "/api/properties/featured", "", nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Properties []domain.Property `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Properties, 6)
	assert.Equal(t, newest.ID, body.Properties[0].ID)
}

func TestWriteRoutes_RequireSessionAndAgent(t *testing.T) {
	e := newEnv(t)
	payload := map[string]any{"title": "x"}

	res, raw := e.doJSON(t, http.MethodPost, "/api/properties", "", payload)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.NotEmpty(t, decodeEnvelope(t, raw).Error)

	res, _ = e.doJSON(t, http.MethodPost, "/api/properties", "garbage", payload)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	plain := e.token(t, uuid.NewString(), "")
	res, raw = e.doJSON(t, http.MethodPost, "/api/properties", plain, payload)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "agent profile required", decodeEnvelope(t, raw).Error)
}

func TestSessionCookieIsAccepted(t *testing.T) {
	e := newEnv(t)
	tok := e.agent(t, uuid.NewString())

	req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/api/dashboard/properties", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: tok})
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestCreateUpdateDeleteProperty(t *testing.T) {
	e := newEnv(t)
	agentID := uuid.NewString()
	tok := e.agent(t, agentID)

	res, raw := e.doJSON(t, http.MethodPost, "/api/properties", tok, map[string]any{
		"title":         "Casa con jardín",
		"description":   "Amplia casa con jardín y cochera",
		"price":         250000,
		"address":       "Av. Siempre Viva 742",
		"type":          "casa",
		"bedrooms":      3,
		"contact_email": "ventas@example.com",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(raw))
	var created struct {
		Message  string          `json:"message"`
		Property domain.Property `json:"property"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, domain.StatusDisponible, created.Property.Status)
	require.NotNil(t, created.Property.AgentID)
	assert.Equal(t, agentID, *created.Property.AgentID)

	id := created.Property.ID
	res, raw = e.doJSON(t, http.MethodPut, "/api/properties/"+id, tok, map[string]any{"status": "reservada", "title": nil})
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	var updated struct {
		Property domain.Property `json:"property"`
	}
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, domain.StatusReservada, updated.Property.Status)
	assert.Equal(t, "Casa con jardín", updated.Property.Title, "null leaves the field untouched")

	res, _ = e.doJSON(t, http.MethodDelete, "/api/properties/"+id, tok, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = e.doJSON(t, http.MethodDelete, "/api/properties/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCreateProperty_ValidationDetails(t *testing.T) {
	e := newEnv(t)
	tok := e.agent(t, uuid.NewString())

	res, raw := e.doJSON(t, http.MethodPost, "/api/properties", tok, map[string]any{
		"title":         "",
		"description":   "short",
		"price":         -1,
		"address":       "Calle 1",
		"type":          "castillo",
		"contact_email": "nope",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	env := decodeEnvelope(t, raw)
	for _, f := range []string{"title", "description", "price", "type", "contact_email"} {
		assert.Contains(t, env.Details, f)
	}

	res, raw = e.do(t, http.MethodPost, "/api/properties", tok, strings.NewReader(`{"price": "lots"}`), "application/json")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeEnvelope(t, raw).Details, "price")

	res, raw = e.do(t, http.MethodPost, "/api/properties", tok, strings.NewReader(`{`), "application/json")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeEnvelope(t, raw).Details, "body")
}

func TestDashboard_IncludesEveryStatus(t *testing.T) {
	e := newEnv(t)
	tok := e.agent(t, uuid.NewString())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, s := range domain.PropertyStatuses {
		e.store.SeedProperty(uuid.NewString(), 100000, domain.TypeLocal, s, base.Add(time.Duration(i)*time.Minute))
	}

	_, raw := e.do(t, http.MethodGet, "/api/properties", "", nil, "")
	var public struct {
		Properties []domain.Property `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &public))
	assert.Len(t, public.Properties, 1)

	res, raw := e.do(t, http.MethodGet, "/api/dashboard/properties", tok, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var dash struct {
		Properties []domain.Property `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &dash))
	assert.Len(t, dash.Properties, len(domain.PropertyStatuses))

	res, raw = e.do(t, http.MethodGet, "/api/dashboard/properties?status=vendida", tok, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &dash))
	require.Len(t, dash.Properties, 1)
	assert.Equal(t, domain.StatusVendida, dash.Properties[0].Status)
}

func TestImageLifecycle(t *testing.T) {
	e := newEnv(t)
	tok := e.agent(t, uuid.NewString())
	p := e.store.SeedProperty(uuid.NewString(), 100000, domain.TypeCasa, domain.StatusDisponible, time.Now().UTC())
	imagesPath := "/api/properties/" + p.ID + "/images"

	body, ct := multipartImage(t, "front.jpg", "image/jpeg", 2048, "")
	res, raw := e.do(t, http.MethodPost, imagesPath, tok, body, ct)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(raw))
	var first struct {
		Image domain.PropertyImage `json:"image"`
	}
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.True(t, first.Image.IsMain, "first image becomes main")
	assert.True(t, strings.HasSuffix(first.Image.StoragePath, ".jpg"))

	body, ct = multipartImage(t, "back.png", "image/png", 1024, "true")
	res, raw = e.do(t, http.MethodPost, imagesPath, tok, body, ct)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(raw))
	var second struct {
		Image domain.PropertyImage `json:"image"`
	}
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.True(t, second.Image.IsMain)

	mains := e.store.Mains(p.ID)
	require.Len(t, mains, 1)
	assert.Equal(t, second.Image.ID, mains[0].ID)

	// switch back
	res, _ = e.doJSON(t, http.MethodPatch, imagesPath+"/"+first.Image.ID, tok, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, first.Image.ID, e.store.Mains(p.ID)[0].ID)

	res, raw = e.do(t, http.MethodGet, imagesPath, "", nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list struct {
		Images []domain.PropertyImage `json:"images"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Images, 2)
	assert.Equal(t, first.Image.ID, list.Images[0].ID, "main first")

	// deleting the main promotes the survivor
	res, _ = e.doJSON(t, http.MethodDelete, imagesPath+"/"+first.Image.ID, tok, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	mains = e.store.Mains(p.ID)
	require.Len(t, mains, 1)
	assert.Equal(t, second.Image.ID, mains[0].ID)

	res, _ = e.doJSON(t, http.MethodDelete, imagesPath+"/"+uuid.NewString(), tok, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUploadImage_Rejections(t *testing.T) {
	e := newEnv(t)
	tok := e.agent(t, uuid.NewString())
	p := e.store.SeedProperty(uuid.NewString(), 100000, domain.TypeCasa, domain.StatusDisponible, time.Now().UTC())
	imagesPath := "/api/properties/" + p.ID + "/images"

	cases := []struct {
		name   string
		file   string
		ct     string
		size   int
		status int
	}{
		{"pdf", "plan.pdf", "application/pdf", 1024, http.StatusBadRequest},
		{"oversize", "huge.jpg", "image/jpeg", app.MaxImageSize + 512<<10, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartImage(t, tc.file, tc.ct, tc.size, "")
			res, raw := e.do(t, http.MethodPost, imagesPath, tok, body, ct)
			require.Equal(t, tc.status, res.StatusCode)
			assert.Contains(t, decodeEnvelope(t, raw).Details, "file")
		})
	}

	res, raw := e.do(t, http.MethodPost, imagesPath, tok, strings.NewReader("{}"), "application/json")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeEnvelope(t, raw).Details, "file")

	body, ct := multipartImage(t, "front.jpg", "image/jpeg", 1024, "")
	res, _ = e.do(t, http.MethodPost, "/api/properties/"+uuid.NewString()+"/images", tok, body, ct)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	assert.Empty(t, e.blobs.Objects, "nothing stored for rejected uploads")
	assert.Empty(t, e.store.ImagesOf(p.ID))
}

func TestInquiries_PublicCreateAdminManage(t *testing.T) {
	e := newEnv(t)
	p := e.store.SeedProperty(uuid.NewString(), 100000, domain.TypeCasa, domain.StatusDisponible, time.Now().UTC())

	res, raw := e.doJSON(t, http.MethodPost, "/api/inquiries", "", map[string]any{
		"property_id": p.ID,
		"name":        "Ana",
		"email":       "ana@example.com",
		"message":     "Me interesa visitar la casa",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(raw))
	var created struct {
		Inquiry domain.PropertyInquiry `json:"inquiry"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.False(t, created.Inquiry.Read)

	res, _ = e.doJSON(t, http.MethodPost, "/api/inquiries", "", map[string]any{
		"property_id": uuid.NewString(),
		"name":        "Ana",
		"email":       "ana@example.com",
		"message":     "Me interesa visitar la casa",
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// agents are not admins
	res, _ = e.do(t, http.MethodGet, "/api/inquiries", e.agent(t, uuid.NewString()), nil, "")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	admin := e.token(t, uuid.NewString(), domain.RoleAdmin)
	res, raw = e.do(t, http.MethodGet, "/api/inquiries?unread_only=true", admin, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list struct {
		Inquiries []domain.PropertyInquiry `json:"inquiries"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list.Inquiries, 1)

	res, raw = e.doJSON(t, http.MethodPatch, "/api/inquiries/"+created.Inquiry.ID, admin, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var toggled struct {
		Inquiry domain.PropertyInquiry `json:"inquiry"`
	}
	require.NoError(t, json.Unmarshal(raw, &toggled))
	assert.True(t, toggled.Inquiry.Read)

	_, raw = e.do(t, http.MethodGet, "/api/inquiries?unread_only=true", admin, nil, "")
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Empty(t, list.Inquiries)

	res, raw = e.do(t, http.MethodGet, "/api/inquiries?unread_only=maybe", admin, nil, "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeEnvelope(t, raw).Details, "unread_only")

	res, _ = e.doJSON(t, http.MethodDelete, "/api/inquiries/"+created.Inquiry.ID, admin, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = e.doJSON(t, http.MethodDelete, "/api/inquiries/"+created.Inquiry.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAgents_RegisterAndProfile(t *testing.T) {
	e := newEnv(t)
	userID := uuid.NewString()
	tok := e.token(t, userID, "")

	res, _ := e.do(t, http.MethodGet, "/api/agents/profile", tok, nil, "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, raw := e.doJSON(t, http.MethodPost, "/api/agents", tok, map[string]any{"name": "Lucía"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(raw))
	var created struct {
		Agent domain.Agent `json:"agent"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, userID, created.Agent.ID)
	assert.Equal(t, userID+"@example.com", created.Agent.Email)

	res, _ = e.doJSON(t, http.MethodPost, "/api/agents", tok, map[string]any{"name": "Lucía"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, raw = e.doJSON(t, http.MethodPut, "/api/agents/profile", tok, map[string]any{"name": "Lucía P.", "bio": "Zona norte"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	var profile struct {
		Profile domain.Agent `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(raw, &profile))
	assert.Equal(t, "Lucía P.", profile.Profile.Name)
	require.NotNil(t, profile.Profile.Bio)

	res, raw = e.do(t, http.MethodGet, "/api/agents", tok, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list struct {
		Agents []domain.Agent `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list.Agents, 1)

	res, _ = e.do(t, http.MethodGet, "/api/agents", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	e := newEnv(t)
	res, raw := e.do(t, http.MethodGet, "/api/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "route not found", decodeEnvelope(t, raw).Error)
}
