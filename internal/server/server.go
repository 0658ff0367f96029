package server

// Server объединяет специфичные HTTP сервера админки.
type Server struct {
	AdminServer
}

func NewServer(adminServer AdminServer) Server {
	return Server{
		AdminServer: adminServer,
	}
}
