// Package ioc is an in-process inversion-of-control container that proves
// the dependency graph sound before any object is built.
//
// # Overview
//
// Components are bound to identities in a Config. An identity is a declared
// type plus an optional qualifier. Commit walks every binding's declared
// dependencies and fails fast on:
//   - a dependency that has no binding (MissingDependencyError)
//   - a cycle of direct dependencies (CyclicDependencyError)
//
// Configuration defects in a component, such as an interface bound as an
// implementation or an unknown scope tag, are reported by Bind and BindType
// with an IllegalComponentError.
//
// # Basic Usage
//
//	config := ioc.NewConfig()
//	_ = ioc.Bind[*Options](config, &Options{DSN: "postgres://"})
//	_ = ioc.BindType[Repository, *SQLRepository](config, ioc.Singleton)
//
//	ctx, err := config.Commit()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	repo, ok, err := ioc.Resolve[Repository](ctx)
//
// # Injection Points
//
// An injection provider builds a component in three steps:
//
//  1. call the injection constructor with its parameters resolved
//  2. assign every injection field, leaf level first
//  3. call every injection method, ancestor level first
//
// The default metadata source reads fields from the inject struct tag and
// takes constructors and methods from Describe:
//
//	type SQLRepository struct {
//	    Logger Logger `inject:""`
//	    Audit  Sink   `inject:"name=audit"`
//	}
//
//	_ = ioc.Describe[*SQLRepository](
//	    ioc.InjectConstructor(NewSQLRepository),
//	    ioc.InjectMethod("Migrate"),
//	)
//
// A type's hierarchy is the chain of structs it embeds by value. An
// injection method redeclared on a subtype runs once, with the subtype's
// body. An ancestor injection method that the leaf type redeclares without
// marking it (DeclareMethod) is never called.
//
// # Scopes
//
// Scopes decorate providers to change instance caching:
//   - no scope: a new instance for every lookup
//   - Singleton: one instance per Context
//   - Pooled{Size: n}: up to n instances, handed out round-robin
//
// Custom scopes are registered with Config.RegisterScope and referenced
// with NamedScope.
//
// # Breaking Cycles
//
// A dependency declared as Factory[T] is a container reference. It only
// has to be bound; it is never followed during cycle detection, because
// the component is built when the factory is invoked:
//
//	type Pilot struct {
//	    Ship ioc.Factory[*Ship] `inject:""`
//	}
//
// Invoking a factory from the constructor it was injected into brings the
// cycle back at resolution time. The container does not detect that.
package ioc
