package broker

// Broker describes one external broker service: how to find it,
// install it, and run it. Descriptors are config-driven; Defaults
// covers the stock Redis + RabbitMQ pair.
type Broker struct {
	Name         string   `json:"name" mapstructure:"name"`
	Binary       string   `json:"binary" mapstructure:"binary"`                 // executable checked on PATH
	Package      string   `json:"package" mapstructure:"package"`               // system package name
	Service      string   `json:"service" mapstructure:"service"`               // service unit name
	Plugins      []string `json:"plugins" mapstructure:"plugins"`               // extensions enabled after install
	CheckCommand string   `json:"check_command" mapstructure:"check_command"`   // optional liveness probe command
	PluginTool   string   `json:"plugin_tool" mapstructure:"plugin_tool"`       // plugin manager binary (default <name>-plugins)
	AdminWarning string   `json:"admin_warning" mapstructure:"admin_warning"`   // logged once after plugins are enabled
}

// Defaults returns the stock broker pair: Redis for the result cache
// and queue, RabbitMQ for task messaging with its management UI.
func Defaults() []Broker {
	return []Broker{
		{
			Name:    "redis",
			Binary:  "redis-server",
			Package: "redis-server",
			Service: "redis-server",
		},
		{
			Name:       "rabbitmq",
			Binary:     "rabbitmq-server",
			Package:    "rabbitmq-server",
			Service:    "rabbitmq-server",
			Plugins:    []string{"rabbitmq_management"},
			PluginTool: "rabbitmq-plugins",
			AdminWarning: "management UI listens on :15672 with default guest/guest credentials; " +
				"rotate them before exposing it beyond localhost",
		},
	}
}
