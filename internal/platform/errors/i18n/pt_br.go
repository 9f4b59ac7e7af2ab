package i18n

var ptBRMessages = map[Code]string{
	CodeInvalidAddress:       "Informe o endereço da conta.",
	CodeInvalidBetKind:       "Essa aposta não existe na mesa.",
	CodeInvalidNumber:        "Esse número não vale para essa aposta.",
	CodeWrongStake:           "O bilhete custa exatamente {{.expected}}.",
	CodeInvalidTier:          "Nível de prêmio desconhecido.",
	CodeInvalidName:          "Informe o nome do prêmio.",
	CodeSelfSwap:             "Você não pode trocar consigo mesmo.",
	CodeNotOwner:             "O item #{{.item_id}} pertence a outra pessoa.",
	CodeWrongTarget:          "O item #{{.item_id}} não está com o jogador escolhido.",
	CodeItemReserved:         "O item #{{.item_id}} já faz parte de uma troca pendente.",
	CodeProposerNoLongerOwns: "O item oferecido mudou de dono desde a proposta.",
	CodeNotPending:           "A troca #{{.swap_id}} não está mais pendente.",
	CodeNotFound:             "Nada foi encontrado com esse id.",
	CodeCapacityExceeded:     "O inventário está cheio ({{.capacity}} itens).",
	CodeCooldownActive:       "Aguarde {{.remaining_seconds}} segundos antes de tentar de novo.",
	CodeNotProposer:          "Só quem propôs pode cancelar esta troca.",
	CodeNotTarget:            "Só o destinatário pode responder a esta troca.",
	CodeNotMinter:            "Você não tem permissão para cunhar prêmios.",
}
