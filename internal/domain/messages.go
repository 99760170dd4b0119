package domain

// Client-facing messages. Existing clients match on these strings.
const (
	MsgInvalidUserID         = "ID inválido, deve ser um número."
	MsgUserNotFound          = "Utilizador não encontrado"
	MsgAgeRangeRequired      = "Parâmetros 'min' e 'max' são obrigatórios."
	MsgAgeRangeNotNumeric    = "Parâmetros de idade devem ser números."
	MsgUpdateFieldsRequired  = "Para atualizar, todos os campos (name, email, role, age) são obrigatórios."
	MsgInvalidTypes          = "Tipos de dados inválidos. Verifique os campos enviados."
	MsgInvalidRole           = "Papel inválido. Valores permitidos: admin, user."
	MsgEmailInUse            = "E-mail já está em uso por outro utilizador."
	MsgUserUpdated           = "Utilizador atualizado com sucesso!"
	MsgCleanupConfirm        = "Parâmetro 'confirm=true' é obrigatório para executar a limpeza."
	MsgCleanupDone           = "Limpeza de utilizadores inativos concluída."
	MsgPostFieldsRequired    = "É necessário preencher todos os campos"
	MsgPostTitleTooShort     = "O título deve conter pelo menos 3 caracteres"
	MsgPostContentTooShort   = "Conteúdo deve ter pelo menos 10 caracteres"
	MsgAuthorNotFound        = "Autor com id %s não foi encontrado."
	MsgPostCreated           = "Post criado com sucesso!"
	MsgInvalidPostID         = "ID do post inválido, deve ser um número."
	MsgPostNotFound          = "Post não encontrado"
	MsgPostToDeleteNotFound  = "Post não encontrado."
	MsgProtectedField        = "Não é permitido alterar o campo '%s'."
	MsgUnknownPostField      = "Campo '%s' não existe no post."
	MsgInvalidFieldType      = "Tipo inválido para o campo '%s'."
	MsgPostUpdated           = "Post atualizado com sucesso!"
	MsgInvalidUserIDHeader   = "Header 'User-Id' é obrigatório e deve ser um número."
	MsgRequestUserNotFound   = "Utilizador da requisição não encontrado."
	MsgDeleteForbidden       = "Ação não autorizada. Apenas o autor ou um admin pode apagar este post."
	MsgPostDeleted           = "Post apagado com sucesso."
	MsgInvalidBody           = "Corpo da requisição inválido."
	MsgInternalError         = "Erro interno do servidor."
	MsgInvalidAuditEntity    = "entity_type inválido. Valores permitidos: user, post."
	MsgInvalidAuditEntityID  = "entity_id inválido, deve ser um número."
	MsgAuditFilterIncomplete = "Os parâmetros 'entity_type' e 'entity_id' devem ser enviados juntos."
)

// Title and content minimums, counted in characters.
const (
	MinPostTitleLength   = 3
	MinPostContentLength = 10
)
