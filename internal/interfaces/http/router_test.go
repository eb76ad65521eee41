package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/application/reporting"
	"github.com/jhoicas/distribucion-api/internal/infrastructure/memory"
	"github.com/jhoicas/distribucion-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/distribucion-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/distribucion-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	store := memory.NewStore()
	cfg := allocation.Config{StorageTimeout: time.Second}
	engine := allocation.NewAllocationEngine(store, store.Repos(), cfg, nil)
	lifecycle := allocation.NewUnitLifecycle(store, store.Repos(), cfg, nil)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Engine:    engine,
		Lifecycle: lifecycle,
		Reporting: reporting.NewReportingUseCase(store.Reporting(), nil, 0, time.Second, nil),
		Documents: reporting.NewDocumentsUseCase(engine, engine, lifecycle, pdf.NewMarotoPDFGenerator("test")),
		JWTSecret: testJWTSecret,
	})
	return &apiClient{t: t, app: app}
}

// do envía la petición como "<rol>-1" y decodifica el JSON de respuesta.
func (a *apiClient) do(method, path, role string, body any) (int, map[string]any) {
	a.t.Helper()
	return a.doAs(method, path, role, role+"-1", body)
}

// doAs como do, con un actor explícito.
func (a *apiClient) doAs(method, path, role, actorID string, body any) (int, map[string]any) {
	a.t.Helper()
	resp := a.rawAs(method, path, role, actorID, body)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	out := map[string]any{}
	if len(raw) > 0 && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (a *apiClient) raw(method, path, role string, body any) *http.Response {
	a.t.Helper()
	return a.rawAs(method, path, role, role+"-1", body)
}

func (a *apiClient) rawAs(method, path, role, actorID string, body any) *http.Response {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	tok, err := pkgjwt.Generate(testJWTSecret, actorID, "org-1", role, testIssuer, testExpMin)
	require.NoError(a.t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	return resp
}

func decodeCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Code
}

func evidenceBody() map[string]any {
	return map[string]any{
		"date":       time.Now().UTC().Format(time.RFC3339),
		"location":   "vereda La Esperanza",
		"proof_uris": []string{"s3://evidencias/foto-1.jpg"},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocations_FlujoCompleto(t *testing.T) {
	api := newAPI(t)

	status, root := api.do(http.MethodPost, "/api/allocations", "distributor", map[string]any{
		"resource_kind": "plantulas-ae", "quantity": 100, "recipient_id": "association-1",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "ALLOCATED", root["status"])
	assert.Equal(t, "distributor-1", root["distributor_id"], "el distribuidor es el actor autenticado")
	rootID := root["id"].(string)

	status, res := api.do(http.MethodPost, "/api/allocations/"+rootID+"/children", "association", map[string]any{
		"recipient_id": "farmer-1", "quantity": 60,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "PARTIALLY_RESUBDIVIDED", res["root_status"])
	childID := res["child"].(map[string]any)["id"].(string)

	status, errBody := api.do(http.MethodPost, "/api/allocations/"+rootID+"/children", "association", map[string]any{
		"recipient_id": "agri-2", "quantity": 50,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EXCEEDS_ALLOCATION", errBody["code"])
	assert.Equal(t, "40", errBody["remaining"])

	status, res = api.do(http.MethodPost, "/api/allocations/"+rootID+"/children", "association", map[string]any{
		"recipient_id": "agri-2", "quantity": 40,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "FULLY_RESUBDIVIDED", res["root_status"])

	status, errBody = api.do(http.MethodPost, "/api/children/"+childID+"/planted", "farmer", map[string]any{
		"location": "finca",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "MISSING_EVIDENCE", errBody["code"])

	status, child := api.do(http.MethodPost, "/api/children/"+childID+"/planted", "farmer", evidenceBody())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PLANTED", child["lifecycle_state"])

	status, errBody = api.do(http.MethodDelete, "/api/children/"+childID, "association", nil)
	assert.Equal(t, http.StatusConflict, status, "una sub-asignación sembrada no se retira")
	assert.Equal(t, "INVALID_TRANSITION", errBody["code"])
	assert.Equal(t, "PLANTED", errBody["current_state"])

	status, detail := api.do(http.MethodGet, "/api/allocations/"+rootID, "association", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, detail["children"], 2)

	status, errBody = api.do(http.MethodDelete, "/api/allocations/"+rootID, "distributor", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "HAS_DEPENDENTS", errBody["code"])

	status, summary := api.do(http.MethodGet, "/api/reports/allocations/"+rootID, "distributor", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, summary["child_count"])

	resp := api.raw(http.MethodGet, "/api/allocations/"+rootID+"/statement.pdf", "association", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdfBytes, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))
}

// createRoot crea una raíz de distributor-1 hacia association-1.
func createRoot(t *testing.T, api *apiClient, qty int) string {
	t.Helper()
	status, root := api.do(http.MethodPost, "/api/allocations", "distributor", map[string]any{
		"resource_kind": "plantulas", "quantity": qty, "recipient_id": "association-1",
	})
	require.Equal(t, http.StatusCreated, status)
	return root["id"].(string)
}

func TestAllocations_SoloElDistribuidorAdministraLaRaiz(t *testing.T) {
	api := newAPI(t)
	rootID := createRoot(t, api, 10)

	status, body := api.doAs(http.MethodPatch, "/api/allocations/"+rootID, "distributor", "distributor-2", map[string]any{"remarks": "ajeno"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = api.doAs(http.MethodPost, "/api/allocations/"+rootID+"/cancel", "distributor", "distributor-2", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.doAs(http.MethodDelete, "/api/allocations/"+rootID, "distributor", "distributor-2", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, root := api.do(http.MethodGet, "/api/allocations/"+rootID, "admin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ALLOCATED", root["status"], "los rechazos no tocan la raíz")

	status, root = api.do(http.MethodPatch, "/api/allocations/"+rootID, "distributor", map[string]any{"remarks": "entrega en bodega"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "entrega en bodega", root["remarks"])

	status, root = api.doAs(http.MethodPost, "/api/allocations/"+rootID+"/cancel", "admin", "soporte", nil)
	require.Equal(t, http.StatusOK, status, "admin opera sobre cualquier raíz")
	assert.Equal(t, "CANCELLED", root["status"])

	status, _ = api.do(http.MethodDelete, "/api/allocations/"+createRoot(t, api, 5), "distributor", nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestAllocations_SoloLaAsociacionReceptoraSubasigna(t *testing.T) {
	api := newAPI(t)
	rootID := createRoot(t, api, 10)

	status, body := api.doAs(http.MethodPost, "/api/allocations/"+rootID+"/children", "association", "association-2", map[string]any{
		"recipient_id": "farmer-1", "quantity": 4,
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, res := api.do(http.MethodPost, "/api/allocations/"+rootID+"/children", "association", map[string]any{
		"recipient_id": "farmer-1", "quantity": 4,
	})
	require.Equal(t, http.StatusCreated, status)
	childID := res["child"].(map[string]any)["id"].(string)

	status, _ = api.doAs(http.MethodDelete, "/api/children/"+childID, "association", "association-2", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, root := api.do(http.MethodDelete, "/api/children/"+childID, "association", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ALLOCATED", root["status"])
}

func TestChildren_SoloElReceptorRegistraResultados(t *testing.T) {
	api := newAPI(t)
	rootID := createRoot(t, api, 10)
	ids := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		status, res := api.do(http.MethodPost, "/api/allocations/"+rootID+"/children", "association", map[string]any{
			"recipient_id": "farmer-1", "quantity": 5,
		})
		require.Equal(t, http.StatusCreated, status)
		ids = append(ids, res["child"].(map[string]any)["id"].(string))
	}

	status, body := api.doAs(http.MethodPost, "/api/children/"+ids[0]+"/planted", "farmer", "farmer-2", evidenceBody())
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	outcome := evidenceBody()
	outcome["state"] = "DAMAGED"
	status, _ = api.doAs(http.MethodPost, "/api/children/"+ids[0]+"/outcome", "association", "association-2", outcome)
	assert.Equal(t, http.StatusForbidden, status)

	status, child := api.do(http.MethodGet, "/api/children/"+ids[0], "admin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DISTRIBUTED", child["lifecycle_state"])

	status, child = api.do(http.MethodPost, "/api/children/"+ids[0]+"/planted", "farmer", evidenceBody())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PLANTED", child["lifecycle_state"])

	status, child = api.do(http.MethodPost, "/api/children/"+ids[1]+"/outcome", "association", outcome)
	require.Equal(t, http.StatusOK, status, "la asociación receptora registra en nombre del agricultor")
	assert.Equal(t, "DAMAGED", child["lifecycle_state"])
}

func TestAllocations_RolesYValidacion(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(http.MethodPost, "/api/allocations", "farmer", map[string]any{
		"resource_kind": "plantulas", "quantity": 10, "recipient_id": "asoc-1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, body = api.do(http.MethodPost, "/api/allocations", "distributor", map[string]any{
		"resource_kind": "plantulas", "quantity": -5, "recipient_id": "asoc-1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Contains(t, body["message"], "quantity")

	status, body = api.do(http.MethodPost, "/api/allocations", "distributor", map[string]any{
		"quantity": 5, "recipient_id": "asoc-1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "resource_kind")

	status, _ = api.do(http.MethodGet, "/api/allocations/no-existe", "admin", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAllocations_ListadoPorActor(t *testing.T) {
	api := newAPI(t)
	for i := 0; i < 3; i++ {
		status, _ := api.do(http.MethodPost, "/api/allocations", "distributor", map[string]any{
			"resource_kind": "plantulas", "quantity": 10, "recipient_id": "asoc-1",
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := api.do(http.MethodGet, "/api/allocations?limit=2", "distributor", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 2)
	page := body["page"].(map[string]any)
	assert.Equal(t, true, page["has_more"])
	assert.EqualValues(t, 2, page["next_offset"])

	status, body = api.do(http.MethodGet, "/api/allocations?limit=2&offset=2", "distributor", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 1)
	page = body["page"].(map[string]any)
	assert.Equal(t, false, page["has_more"])
	assert.NotContains(t, page, "next_offset")

	status, body = api.do(http.MethodGet, "/api/allocations?recipient_id=asoc-1", "admin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 3)

	status, _ = api.do(http.MethodGet, "/api/allocations?limit=500", "distributor", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock y entregas
// ──────────────────────────────────────────────────────────────────────────────

func TestStockYEntregas_FlujoCompleto(t *testing.T) {
	api := newAPI(t)

	status, _ := api.do(http.MethodPut, "/api/source-batches/lote-7", "admin", map[string]any{
		"resource_kind": "fibra-a", "quantity": 20, "verification_state": "PENDING",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := api.do(http.MethodPost, "/api/stock", "admin", map[string]any{"source_batch_id": "lote-7"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "NOT_VERIFIED", body["code"])

	status, batch := api.do(http.MethodPut, "/api/source-batches/lote-7", "admin", map[string]any{
		"resource_kind": "fibra-a", "quantity": 20, "verification_state": "VERIFIED",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, batch["is_verified"])

	status, stock := api.do(http.MethodPost, "/api/stock", "admin", map[string]any{"source_batch_id": "lote-7"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "20", stock["remaining_quantity"])
	stockID := stock["id"].(string)

	status, body = api.do(http.MethodPost, "/api/stock", "admin", map[string]any{"source_batch_id": "lote-7"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_ADMITTED", body["code"])

	status, w := api.do(http.MethodPost, "/api/stock/"+stockID+"/withdrawals", "processor", map[string]any{
		"recipient": "hilandería", "quantity": 20,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "FULLY_DISTRIBUTED", w["stock"].(map[string]any)["status"])
	withdrawalID := w["withdrawal"].(map[string]any)["id"].(string)

	status, body = api.do(http.MethodPost, "/api/stock/"+stockID+"/withdrawals", "processor", map[string]any{
		"recipient": "hilandería", "quantity": 1,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, "0", body["remaining"])

	status, d := api.do(http.MethodPost, "/api/deliveries", "processor", map[string]any{"withdrawal_id": withdrawalID})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "IN_TRANSIT", d["state"])
	deliveryID := d["id"].(string)

	status, body = api.do(http.MethodPost, "/api/deliveries/"+deliveryID+"/paid", "admin", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "NOT_YET_DELIVERED", body["code"])

	status, d = api.do(http.MethodPost, "/api/deliveries/"+deliveryID+"/state", "processor", map[string]any{"state": "DELIVERED"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DELIVERED", d["state"])

	status, d = api.do(http.MethodPost, "/api/deliveries/"+deliveryID+"/paid", "admin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PAID", d["payment_state"])

	status, _ = api.do(http.MethodPost, "/api/deliveries/"+deliveryID+"/state", "processor", map[string]any{"state": "COMPLETED"})
	require.Equal(t, http.StatusOK, status)

	status, body = api.do(http.MethodPost, "/api/deliveries/"+deliveryID+"/state", "processor", map[string]any{
		"state": "CANCELLED", "reason": "error de captura",
	})
	assert.Equal(t, http.StatusConflict, status, "COMPLETED es terminal")
	assert.Equal(t, "COMPLETED", body["current_state"])

	status, ov := api.do(http.MethodGet, "/api/reports/overview", "admin", nil)
	require.Equal(t, http.StatusOK, status)
	deliveries := ov["deliveries"].(map[string]any)
	assert.EqualValues(t, 1, deliveries["paid"])

	resp := api.raw(http.MethodGet, "/api/deliveries/"+deliveryID+"/note.pdf", "processor", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStock_RetiroYBorrado(t *testing.T) {
	api := newAPI(t)
	_, _ = api.do(http.MethodPut, "/api/source-batches/lote-9", "admin", map[string]any{
		"resource_kind": "fibra-b", "quantity": 8, "verification_state": "VERIFIED",
	})
	status, stock := api.do(http.MethodPost, "/api/stock", "admin", map[string]any{"source_batch_id": "lote-9", "quantity": 5})
	require.Equal(t, http.StatusCreated, status)
	stockID := stock["id"].(string)

	status, _ = api.do(http.MethodPost, "/api/stock/"+stockID+"/withdrawn", "processor", map[string]any{"reason": "humedad"})
	assert.Equal(t, http.StatusForbidden, status)

	status, stock = api.do(http.MethodPost, "/api/stock/"+stockID+"/withdrawn", "admin", map[string]any{"reason": "humedad"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "WITHDRAWN", stock["status"])

	status, body := api.do(http.MethodPost, "/api/stock/"+stockID+"/withdrawals", "processor", map[string]any{
		"recipient": "hilandería", "quantity": 1,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
	assert.Equal(t, "WITHDRAWN", body["current_state"])

	status, _ = api.do(http.MethodDelete, "/api/stock/"+stockID, "admin", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(http.MethodGet, "/api/stock/"+stockID, "admin", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_SinToken(t *testing.T) {
	api := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/reports/stock", nil)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
