package agents

// codeGeneratorModel pins the code-generation agents to a model that is
// reliable at emitting long JSON-wrapped source files.
const codeGeneratorModel = "openai:gpt-4o-2024-08-06"

func draftingFields(elementKey string) map[string]string {
	return map[string]string{
		RoleUpdatedElement: elementKey,
		RoleMessage:        "communication",
		RoleMoveNext:       "ready_for_next_workflow",
	}
}

func designFields(elementKey string) map[string]string {
	return map[string]string{
		RoleUpdatedElement: elementKey,
		RoleMessage:        "communication",
	}
}

// descriptors is the closed set of agent types. Adding an agent means adding
// a row here; nothing is registered dynamically.
func descriptors() []Descriptor {
	return []Descriptor{
		{
			Type:              TypeRequirement,
			OwnedElement:      "requirements",
			VisibleElements:   []string{"requirements"},
			SystemInstruction: requirementInstruction,
			Fields:            draftingFields("requirements"),
		},
		{
			Type:              TypeFunctionalRequirement,
			OwnedElement:      "functional-requirements",
			VisibleElements:   []string{"requirements", "functional-requirements"},
			SystemInstruction: functionalRequirementInstruction,
			Fields:            draftingFields("functional_requirements"),
		},
		{
			Type:              TypeNonFunctionalRequirement,
			OwnedElement:      "non-functional-requirements",
			VisibleElements:   []string{"requirements", "non-functional-requirements"},
			SystemInstruction: nonFunctionalRequirementInstruction,
			Fields:            draftingFields("non_functional_requirements"),
		},
		{
			Type:         TypeArchitecture,
			OwnedElement: "architecture",
			VisibleElements: []string{
				"requirements", "functional-requirements",
				"non-functional-requirements", "architecture",
			},
			SystemInstruction: architectureInstruction,
			Fields:            draftingFields("architecture"),
			HTML:              true,
		},
		{
			Type:         TypeAPIContract,
			OwnedElement: "api-contracts",
			VisibleElements: []string{
				"functional-requirements", "non-functional-requirements",
				"architecture", "api-contracts", "database-schema",
			},
			SystemInstruction: apiContractInstruction,
			Fields:            draftingFields("api_contracts"),
			HTML:              true,
		},
		{
			Type:         TypeDatabaseSchema,
			OwnedElement: "database-schema",
			VisibleElements: []string{
				"functional-requirements", "non-functional-requirements",
				"architecture", "database-schema",
			},
			SystemInstruction: databaseSchemaInstruction,
			Fields:            draftingFields("database_schema"),
			HTML:              true,
		},
		{
			Type:         TypeJavaLLD,
			OwnedElement: "java-lld",
			VisibleElements: []string{
				"functional-requirements", "non-functional-requirements",
				"architecture", "api-contracts", "database-schema", "java-lld",
			},
			SystemInstruction: javaLLDInstruction,
			Fields:            designFields("updated low level design"),
			HTML:              true,
		},
		{
			Type:         TypeReactLLD,
			OwnedElement: "react-lld",
			VisibleElements: []string{
				"functional-requirements", "non-functional-requirements",
				"architecture", "api-contracts", "react-lld",
			},
			SystemInstruction: reactLLDInstruction,
			Fields:            designFields("updated react LLD"),
			HTML:              true,
		},
		{
			Type:         TypeJavaCodeGenerator,
			OwnedElement: "java-code",
			VisibleElements: []string{
				"functional-requirements", "non-functional-requirements",
				"architecture", "api-contracts", "database-schema",
				"java-lld", "java-code",
			},
			SystemInstruction: javaCodePlanInstruction,
			Fields:            designFields("files"),
			Model:             codeGeneratorModel,
			FanOut:            true,
			FileInstruction:   javaFileInstruction,
		},
		{
			Type:         TypeReactCodeGenerator,
			OwnedElement: "react-code",
			VisibleElements: []string{
				"functional-requirements", "architecture",
				"api-contracts", "react-lld", "react-code",
			},
			SystemInstruction: reactCodePlanInstruction,
			Fields:            designFields("files"),
			Model:             codeGeneratorModel,
			FanOut:            true,
			FileInstruction:   reactFileInstruction,
		},
	}
}
