package backend

// LocationsResponse is the /get_salas reply: room -> drawer -> folders, plus the
// server's current selection.
type LocationsResponse struct {
	Rooms         map[string]map[string][]string `json:"salas"`
	CurrentRoom   string                         `json:"sala_atual"`
	CurrentDrawer string                         `json:"gaveta_atual"`
}

type selectionRequest struct {
	Room   string `json:"sala"`
	Drawer string `json:"gaveta"`
}

// SelectionResponse is the /set_sala_gaveta acknowledgement.
type SelectionResponse struct {
	Status string `json:"status"`
}

type classifyRequest struct {
	Image string `json:"imagem"`
}

// ClassifyResponse is the /processar_imagem reply. The room and drawer echo
// the server selection at classification time and may be empty.
type ClassifyResponse struct {
	Success       bool   `json:"success"`
	DetectedName  string `json:"nome_detectado,omitempty"`
	Error         string `json:"error,omitempty"`
	CurrentRoom   string `json:"sala_atual,omitempty"`
	CurrentDrawer string `json:"gaveta_atual,omitempty"`
}

type confirmRequest struct {
	Name string `json:"nome"`
}

// ConfirmResponse is the /confirmar_nome reply.
type ConfirmResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
